package session

import (
	"context"
	"sync"
)

type fakeUser struct {
	uid      string
	email    string
	verified bool
	token    string

	tokenErr  error
	updateErr error
	verifyErr error
	deleteErr error

	onIDToken      func()
	updatedTo      string
	verifications  []VerificationSettings
	deleted        bool
	tokenFetchHits int
}

func (u *fakeUser) UID() string         { return u.uid }
func (u *fakeUser) Email() string       { return u.email }
func (u *fakeUser) EmailVerified() bool { return u.verified }

func (u *fakeUser) UpdateEmail(ctx context.Context, newEmail string) error {
	if u.updateErr != nil {
		return u.updateErr
	}
	u.updatedTo = newEmail
	u.email = newEmail
	u.verified = false
	return nil
}

func (u *fakeUser) SendVerificationEmail(ctx context.Context, settings VerificationSettings) error {
	if u.verifyErr != nil {
		return u.verifyErr
	}
	u.verifications = append(u.verifications, settings)
	return nil
}

func (u *fakeUser) IDToken(ctx context.Context) (string, error) {
	u.tokenFetchHits++
	if u.onIDToken != nil {
		u.onIDToken()
	}
	if u.tokenErr != nil {
		return "", u.tokenErr
	}
	return u.token, nil
}

func (u *fakeUser) Delete(ctx context.Context) error {
	if u.deleteErr != nil {
		return u.deleteErr
	}
	u.deleted = true
	return nil
}

// fakeProvider records calls and returns canned results
type fakeProvider struct {
	mu sync.Mutex

	current *fakeUser

	createErr  error
	signInUser *fakeUser
	signInErr  error
	signOutErr error
	resetErr   error

	created      []string
	signIns      []string
	signOuts     int
	resetEmails  []string
	listeners    map[int]func(User)
	nextListener int
	unsubscribed int

	// emit is called with the listener on subscription; nil means no
	// notification until fire is called
	emit func(fn func(User))
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{listeners: make(map[int]func(User))}
}

func (p *fakeProvider) CreateUser(ctx context.Context, email, password string) error {
	p.created = append(p.created, email)
	return p.createErr
}

func (p *fakeProvider) CurrentUser() User {
	if p.current == nil {
		return nil
	}
	return p.current
}

func (p *fakeProvider) SignIn(ctx context.Context, email, password string) (User, error) {
	p.signIns = append(p.signIns, email)
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	if p.signInUser == nil {
		return nil, nil
	}
	p.current = p.signInUser
	return p.signInUser, nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.signOuts++
	p.current = nil
	return p.signOutErr
}

func (p *fakeProvider) SendPasswordReset(ctx context.Context, email string) error {
	p.resetEmails = append(p.resetEmails, email)
	return p.resetErr
}

func (p *fakeProvider) OnAuthStateChanged(fn func(User)) func() {
	p.mu.Lock()
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	emit := p.emit
	p.mu.Unlock()

	if emit != nil {
		emit(fn)
	}

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.listeners[id]; ok {
			delete(p.listeners, id)
			p.unsubscribed++
		}
	}
}

func (p *fakeProvider) listenerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners)
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(message string) {
	n.messages = append(n.messages, message)
}
