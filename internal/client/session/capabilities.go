package session

import "context"

// Navigator moves the user to another route.
type Navigator interface {
	Redirect(ctx context.Context, path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string)

func (f NavigatorFunc) Redirect(ctx context.Context, path string) { f(ctx, path) }

// Notifier shows a short message to the user.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg string)

func (f NotifierFunc) Notify(ctx context.Context, msg string) { f(ctx, msg) }

type nopNavigator struct{}

func (nopNavigator) Redirect(context.Context, string) {}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) {}
