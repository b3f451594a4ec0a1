package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/domain/locator"
)

type fakeClock struct {
	now    time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps++
	c.now = c.now.Add(d)
}

type fakeElement struct{ loc locator.Locator }

func (e fakeElement) Locator() locator.Locator { return e.loc }

type fakeAlert struct {
	text      string
	accepted  bool
	dismissed bool
}

func (a *fakeAlert) Text() string { return a.text }

func (a *fakeAlert) Accept(context.Context) error {
	a.accepted = true
	return nil
}

func (a *fakeAlert) Dismiss(context.Context) error {
	a.dismissed = true
	return nil
}

// fakePage is an in-memory booking page. Elements exist when they have an
// entry in texts. Clicks on a control run its registered effect, which can
// raise an alert or show the error panel.
type fakePage struct {
	catalog locator.Catalog
	clock   *fakeClock

	boxes      int
	texts      map[locator.Locator]string
	textErrs   map[locator.Locator]error
	findAllErr error
	clickErrs  map[locator.Locator]error
	effects    map[locator.Locator]func(*fakePage)
	// onWait runs the first time a locator is waited for, like content a
	// script renders late.
	onWait  map[locator.Locator]func(*fakePage)
	waitErr error

	alert *fakeAlert

	navigated   []string
	typed       map[locator.Locator]string
	clicks      []locator.Locator
	waits       []locator.Locator
	forceClicks []locator.Locator
	clickTimes  []time.Time
	alerts      []*fakeAlert
	closed      bool
}

func newFakePage(c locator.Catalog) *fakePage {
	return &fakePage{
		catalog:   c,
		texts:     map[locator.Locator]string{},
		textErrs:  map[locator.Locator]error{},
		clickErrs: map[locator.Locator]error{},
		effects:   map[locator.Locator]func(*fakePage){},
		onWait:    map[locator.Locator]func(*fakePage){},
		typed:     map[locator.Locator]string{},
	}
}

// addSlot renders a slot box at the next index and returns its control.
func (p *fakePage) addSlot(action locator.Action, class, at string) locator.Locator {
	p.boxes++
	i := p.boxes
	p.texts[p.catalog.SlotLabel(i, action)] = class
	p.texts[p.catalog.SlotTime(i, action)] = at
	ctl := p.catalog.SlotControl(i, action)
	p.texts[ctl] = "book"
	return ctl
}

// addEmptyBox renders a box without labels, like a break in the timetable.
func (p *fakePage) addEmptyBox() { p.boxes++ }

func (p *fakePage) raises(ctl locator.Locator, alertText string) {
	p.effects[ctl] = func(p *fakePage) { p.alert = &fakeAlert{text: alertText} }
}

func (p *fakePage) shows(ctl locator.Locator, errorText string) {
	p.effects[ctl] = func(p *fakePage) {
		p.texts[p.catalog.ErrorWindow()] = "Error"
		p.texts[p.catalog.ErrorText()] = errorText
	}
}

func (p *fakePage) slotClicks() int { return len(p.forceClicks) }

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return nil
}

func (p *fakePage) Find(_ context.Context, loc locator.Locator) (booking.Element, bool, error) {
	if loc == p.catalog.SlotBoxes() && p.boxes > 0 {
		return fakeElement{loc}, true, nil
	}
	if _, ok := p.texts[loc]; !ok {
		return nil, false, nil
	}
	return fakeElement{loc}, true, nil
}

func (p *fakePage) FindAll(_ context.Context, loc locator.Locator) ([]booking.Element, error) {
	if p.findAllErr != nil {
		return nil, p.findAllErr
	}
	if loc != p.catalog.SlotBoxes() {
		return nil, nil
	}
	out := make([]booking.Element, p.boxes)
	for i := range out {
		out[i] = fakeElement{locator.Locator(fmt.Sprintf("(%s)[%d]", loc, i+1))}
	}
	return out, nil
}

func (p *fakePage) Text(_ context.Context, loc locator.Locator) (string, bool, error) {
	if err := p.textErrs[loc]; err != nil {
		return "", false, err
	}
	s, ok := p.texts[loc]
	return s, ok, nil
}

func (p *fakePage) Click(_ context.Context, loc locator.Locator) error {
	if err := p.clickErrs[loc]; err != nil {
		return err
	}
	p.clicks = append(p.clicks, loc)
	return nil
}

func (p *fakePage) ForceClick(_ context.Context, loc locator.Locator) error {
	if err := p.clickErrs[loc]; err != nil {
		return err
	}
	if _, ok := p.texts[loc]; !ok {
		return errors.New("no such element")
	}
	delete(p.texts, p.catalog.ErrorWindow())
	delete(p.texts, p.catalog.ErrorText())
	p.alert = nil

	p.forceClicks = append(p.forceClicks, loc)
	if p.clock != nil {
		p.clickTimes = append(p.clickTimes, p.clock.Now())
	}
	if fx := p.effects[loc]; fx != nil {
		fx(p)
	}
	return nil
}

func (p *fakePage) Type(_ context.Context, loc locator.Locator, text string) error {
	p.typed[loc] = text
	return nil
}

func (p *fakePage) WaitFor(ctx context.Context, loc locator.Locator, _ time.Duration) (booking.Element, bool, error) {
	p.waits = append(p.waits, loc)
	if p.waitErr != nil {
		return nil, false, p.waitErr
	}
	if fx := p.onWait[loc]; fx != nil {
		delete(p.onWait, loc)
		fx(p)
	}
	return p.Find(ctx, loc)
}

func (p *fakePage) WaitForAlert(context.Context, time.Duration) (booking.Alert, bool, error) {
	if p.alert == nil {
		return nil, false, nil
	}
	a := p.alert
	p.alert = nil
	p.alerts = append(p.alerts, a)
	return a, true, nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}
