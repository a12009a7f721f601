// Package session holds the console's view state: the transcript, the
// composer draft, the document selection and upload history, and the
// transient upload notice. It has no I/O and is driven by a single writer.
package session

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ApologyText replaces the reply when a chat request fails.
const ApologyText = "Sorry, I encountered an error. Please try again."

// Message is one transcript entry. Messages are never mutated once appended.
type Message struct {
	Role          Role
	Content       string
	EnhancedQuery string
	Status        string
	IsError       bool
	Time          time.Time
}

// Reply is a decoded chat reply.
type Reply struct {
	Response      string
	EnhancedQuery string
	Status        string
}

// HasAnnotation reports whether the message carries an enhanced query.
func (m Message) HasAnnotation() bool {
	return m.EnhancedQuery != ""
}

func newUserMessage(content string, at time.Time) Message {
	return Message{Role: RoleUser, Content: content, Time: at}
}

func newAssistantMessage(r Reply, at time.Time) Message {
	return Message{
		Role:          RoleAssistant,
		Content:       r.Response,
		EnhancedQuery: r.EnhancedQuery,
		Status:        r.Status,
		Time:          at,
	}
}

func newErrorMessage(at time.Time) Message {
	return Message{Role: RoleAssistant, Content: ApologyText, IsError: true, Time: at}
}
