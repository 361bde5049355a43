package testutil

import (
	"sync"

	tele "gopkg.in/telebot.v3"
)

// FakeContext is a telebot context recording what handlers send.
// Methods not overridden here panic through the nil embedded Context.
type FakeContext struct {
	tele.Context

	User    *tele.User
	Input   string
	Pressed *tele.Callback
	EditErr error

	mu        sync.Mutex
	Sent      []any
	Edited    []any
	Responses []*tele.CallbackResponse
}

// NewFakeContext creates a context for a text message or command from userID
func NewFakeContext(userID int64, text string) *FakeContext {
	return &FakeContext{User: &tele.User{ID: userID}, Input: text}
}

// NewFakeCallback creates a context for an inline button press from userID
func NewFakeCallback(userID int64, unique, data string) *FakeContext {
	return &FakeContext{
		User:    &tele.User{ID: userID},
		Pressed: &tele.Callback{ID: "cb", Unique: unique, Data: data},
	}
}

func (c *FakeContext) Sender() *tele.User { return c.User }
func (c *FakeContext) Text() string { return c.Input }
func (c *FakeContext) Callback() *tele.Callback { return c.Pressed }

func (c *FakeContext) Send(what any, _ ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sent = append(c.Sent, what)
	return nil
}

func (c *FakeContext) Edit(what any, _ ...any) error {
	if c.EditErr != nil {
		return c.EditErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Edited = append(c.Edited, what)
	return nil
}

func (c *FakeContext) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(resp) == 0 {
		resp = []*tele.CallbackResponse{{}}
	}
	c.Responses = append(c.Responses, resp...)
	return nil
}

// LastText returns the last sent or edited message text
func (c *FakeContext) LastText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var last any
	if n := len(c.Edited); n > 0 {
		last = c.Edited[n-1]
	}
	if n := len(c.Sent); n > 0 {
		last = c.Sent[n-1]
	}
	s, _ := last.(string)
	return s
}

// LastResponse returns the text of the last callback answer
func (c *FakeContext) LastResponse() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Responses) == 0 {
		return ""
	}
	return c.Responses[len(c.Responses)-1].Text
}
