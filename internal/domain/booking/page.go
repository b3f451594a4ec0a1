package booking

import (
	"context"
	"time"

	"github.com/seblum/octiv-booker/internal/domain/locator"
)

// Page is the browser capability a session drives. Absence of an element
// or alert is reported through the bool result, never as an error; errors
// mean the driver itself failed.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, loc locator.Locator) (Element, bool, error)
	FindAll(ctx context.Context, loc locator.Locator) ([]Element, error)
	Text(ctx context.Context, loc locator.Locator) (string, bool, error)
	Click(ctx context.Context, loc locator.Locator) error
	// ForceClick dispatches the click from script, for controls hidden
	// behind sticky headers or overlays.
	ForceClick(ctx context.Context, loc locator.Locator) error
	Type(ctx context.Context, loc locator.Locator, text string) error
	WaitFor(ctx context.Context, loc locator.Locator, timeout time.Duration) (Element, bool, error)
	WaitForAlert(ctx context.Context, timeout time.Duration) (Alert, bool, error)
	Close() error
}

// Element is a located node. Its locator addresses exactly that node.
type Element interface {
	Locator() locator.Locator
}

type Alert interface {
	Text() string
	Accept(ctx context.Context) error
	Dismiss(ctx context.Context) error
}

// PageFactory opens a fresh Page, one per session attempt.
type PageFactory interface {
	Open(ctx context.Context) (Page, error)
}

type PageFactoryFunc func(ctx context.Context) (Page, error)

func (f PageFactoryFunc) Open(ctx context.Context) (Page, error) { return f(ctx) }
