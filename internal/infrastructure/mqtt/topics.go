package mqtt

import "fmt"

// TopicPrefix is the root of every topic the registry publishes.
const TopicPrefix = "aas-repository"

// Topics builds the topic names for one repository:
//
//	topics := mqtt.NewTopics("plant-7")
//	topics.ShellCreated() // aas-repository/plant-7/shells/created
type Topics struct {
	repositoryID string
}

// NewTopics returns a builder for the given repository ID.
func NewTopics(repositoryID string) Topics {
	return Topics{repositoryID: repositoryID}
}

// RepositoryID returns the repository the topics belong to.
func (t Topics) RepositoryID() string {
	return t.repositoryID
}

func (t Topics) base() string {
	return fmt.Sprintf("%s/%s", TopicPrefix, t.repositoryID)
}

// ShellCreated is published after a shell is created.
func (t Topics) ShellCreated() string {
	return t.base() + "/shells/created"
}

// ShellUpdated is published after a shell is replaced.
func (t Topics) ShellUpdated() string {
	return t.base() + "/shells/updated"
}

// ShellDeleted is published after a shell is deleted.
func (t Topics) ShellDeleted() string {
	return t.base() + "/shells/deleted"
}

// Status carries the retained online/offline presence of the repository.
func (t Topics) Status() string {
	return t.base() + "/status"
}

// AllShellEvents matches every shell lifecycle topic of this repository.
func (t Topics) AllShellEvents() string {
	return t.base() + "/shells/+"
}
