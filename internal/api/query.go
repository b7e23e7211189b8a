package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nerrad567/twin-registry/internal/filter"
	"github.com/nerrad567/twin-registry/internal/paging"
	"github.com/nerrad567/twin-registry/internal/shell"
)

// pagingMetadata carries the cursor of the next page, null on the last one.
type pagingMetadata struct {
	Cursor *string `json:"cursor"`
}

// pageResponse is the wire shape of every paged listing.
type pageResponse[T any] struct {
	PagingMetadata pagingMetadata `json:"pagingMetadata"`
	Result         []T            `json:"result"`
}

// newPageResponse encodes the next cursor for the wire.
func newPageResponse[T any](page paging.Result[T]) pageResponse[T] {
	resp := pageResponse[T]{Result: page.Items}
	if resp.Result == nil {
		resp.Result = []T{}
	}
	if page.HasMore() {
		token := paging.EncodeCursor(page.NextCursor)
		resp.PagingMetadata.Cursor = &token
	}
	return resp
}

// decodeIdentifier decodes a base64url path segment (padding optional).
func decodeIdentifier(segment string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(segment, "="))
	if err != nil || len(raw) == 0 {
		return "", fmt.Errorf("%w: identifier %q is not base64url encoded", shell.ErrInvalid, segment)
	}
	return string(raw), nil
}

// encodeIdentifier is the inverse of decodeIdentifier.
func encodeIdentifier(id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(id))
}

// pageInfo reads the cursor and limit query parameters. A limit must be a
// positive integer; an undecodable cursor is logged and ignored.
func (s *Server) pageInfo(r *http.Request) (paging.Info, error) {
	var info paging.Info
	q := r.URL.Query()

	if raw, ok := q["limit"]; ok && len(raw) > 0 {
		n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
		if err != nil || n <= 0 {
			return info, fmt.Errorf("%w: %q", paging.ErrInvalidLimit, raw[0])
		}
		info.Limit = n
	}

	if token := q.Get("cursor"); token != "" {
		cursor, err := paging.DecodeCursor(token)
		if err != nil {
			s.logger.Warn("ignoring undecodable cursor",
				"cursor", token,
				"error", err,
				"request_id", requestIDFrom(r),
			)
		} else {
			info.Cursor = cursor
		}
	}

	return info, nil
}

// parseFilter builds a filter from query parameters. Each specificAssetId
// value is base64url encoded JSON of the form {"name":..., "value":...}.
func parseFilter(q url.Values) (filter.Spec, error) {
	var spec filter.Spec

	for _, id := range q["ids"] {
		if id = strings.TrimSpace(id); id != "" {
			spec.IDs = append(spec.IDs, id)
		}
	}
	spec.IDShort = q.Get("idShort")
	spec.AssetType = q.Get("assetType")

	kind, err := shell.ParseAssetKind(q.Get("assetKind"))
	if err != nil {
		return spec, err
	}
	spec.AssetKind = kind

	for _, encoded := range q["specificAssetId"] {
		sid, err := decodeSpecificAssetID(encoded)
		if err != nil {
			return spec, err
		}
		spec.SpecificAssetIDs = append(spec.SpecificAssetIDs, sid)
	}

	return spec, spec.Validate()
}

func decodeSpecificAssetID(encoded string) (shell.SpecificAssetID, error) {
	var sid shell.SpecificAssetID
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return sid, fmt.Errorf("%w: specificAssetId is not base64url encoded", shell.ErrInvalid)
	}
	if err := json.Unmarshal(raw, &sid); err != nil {
		return sid, fmt.Errorf("%w: specificAssetId is not a {name, value} object: %v", shell.ErrInvalid, err)
	}
	return sid, nil
}
