// Package events publishes shell lifecycle events to MQTT.
//
// Publisher is a registry.Interceptor. After each committed mutation it
// publishes to the repository's topic for that event:
//
//	aas-repository/{repoId}/shells/created   payload: shell JSON
//	aas-repository/{repoId}/shells/updated   payload: shell JSON
//	aas-repository/{repoId}/shells/deleted   payload: {"id": ...}
//
// A clear publishes one deleted event per removed shell.
package events
