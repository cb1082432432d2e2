package queueaccess

import (
	"errors"
	"fmt"

	"autopost/internal/ipc"
	"autopost/internal/queue"
)

// Opener describes the two ways a CLI command can reach the queue.
type Opener struct {
	Dial      func() (*ipc.Client, error)
	OpenStore func() (*queue.Store, error)
	Wrap      func(*queue.Store) Access
}

// Session is an open Access plus whatever must be released afterwards.
// DialErr records why the daemon was skipped for a store-backed session.
type Session struct {
	Access  Access
	Remote  bool
	DialErr error
	release func() error
}

// Close releases the IPC connection or database handle.
func (s Session) Close() error {
	if s.release == nil {
		return nil
	}
	return s.release()
}

// OpenWithFallback prefers the running daemon and opens the database
// directly only when the daemon cannot be dialed.
func OpenWithFallback(o Opener) (Session, error) {
	var dialErr error
	if o.Dial != nil {
		client, err := o.Dial()
		if err == nil {
			return Session{Access: NewIPCAccess(client), Remote: true, release: client.Close}, nil
		}
		dialErr = err
	}
	return o.local(dialErr)
}

func (o Opener) local(dialErr error) (Session, error) {
	if o.OpenStore == nil || o.Wrap == nil {
		return Session{}, errors.Join(errors.New("open queue store: no store opener configured"), dialErr)
	}
	store, err := o.OpenStore()
	if err != nil {
		if dialErr != nil {
			return Session{}, fmt.Errorf("daemon unreachable (%v) and open queue store failed: %w", dialErr, err)
		}
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return Session{Access: o.Wrap(store), DialErr: dialErr, release: store.Close}, nil
}
