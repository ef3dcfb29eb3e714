package main

import (
	"context"

	"github.com/Mutua-sr/apptwo-sub001/internal/core"
)

// noopNotifier satisfies calls.Notifier for the offline cleanup command,
// where no connections exist to notify.
type noopNotifier struct{}

func (noopNotifier) UnicastToUser(string, *core.Event) {}

// allowAll satisfies calls.IdentityChecker; the cleanup command never
// creates sessions.
type allowAll struct{}

func (allowAll) Exists(context.Context, string) (bool, error) { return true, nil }
