// Package planexec is a plan-and-execute agent for email tasks. The model
// plans a list of actions which a single tool executes in order.
package planexec

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/smallnest/ragagents/agent"
)

// ContactBook maps contact names to email addresses. It is safe for
// concurrent use.
type ContactBook struct {
	mu       sync.Mutex
	contacts map[string]string
}

// DefaultContacts is the contact list new books start with.
func DefaultContacts() map[string]string {
	return map[string]string{
		"mom":       "mom@example.com",
		"dad":       "dad@example.com",
		"bro(clay)": "brother@example.com",
		"sis(yid)":  "sister@example.com",
		"abel":      "abel@ceo.org",
	}
}

// NewContactBook copies contacts into a new book
func NewContactBook(contacts map[string]string) *ContactBook {
	b := &ContactBook{contacts: make(map[string]string, len(contacts))}
	for k, v := range contacts {
		b.contacts[k] = v
	}
	return b
}

// Names returns the contact names in order
func (b *ContactBook) Names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.contacts))
	for name := range b.contacts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindEmail looks up the address of a contact by name, ignoring case.
func (b *ContactBook) FindEmail(name string) agent.Response {
	clean := strings.ToLower(strings.TrimSpace(name))
	if clean == "" {
		return agent.Failure("Contact name is required.")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	email, ok := b.contacts[clean]
	if !ok {
		return agent.Failuref("No email found for contact '%s'.", name)
	}
	return agent.Success(email)
}

// DeleteEmail removes the contact owning email.
func (b *ContactBook) DeleteEmail(email string) agent.Response {
	clean := strings.ToLower(strings.TrimSpace(email))
	if clean == "" {
		return agent.Failure("Email address is required.")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, addr := range b.contacts {
		if strings.ToLower(addr) == clean {
			delete(b.contacts, name)
			return agent.Success(fmt.Sprintf("Email '%s' has been deleted.", email))
		}
	}
	return agent.Failuref("No contact found with email '%s'.", email)
}

// SendEmail pretends to send message to email.
func SendEmail(email, message string) agent.Response {
	if strings.TrimSpace(email) == "" {
		return agent.Failure("Email address is required.")
	}
	if message == "" {
		return agent.Failure("Message content is required.")
	}
	return agent.Success(fmt.Sprintf("Message sent to '%s': %s", email, message))
}
