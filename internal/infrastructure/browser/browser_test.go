package browser

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap/zaptest"

	"github.com/seblum/octiv-booker/internal/domain/locator"
)

func TestNth(t *testing.T) {
	if got := nth("//div[@class='x']", 3); got != "(//div[@class='x'])[3]" {
		t.Fatalf("nth = %s", got)
	}
}

func TestScriptsQuoteLocator(t *testing.T) {
	loc := locator.Locator(`//p[text()="Open Gym"]`)
	for name, s := range map[string]string{
		"lookup": lookupScript(loc),
		"count":  countScript(loc),
		"click":  forceClickScript(loc),
	} {
		if !strings.Contains(s, `"//p[text()=\"Open Gym\"]"`) {
			t.Errorf("%s script does not quote locator:\n%s", name, s)
		}
	}
	if !strings.Contains(forceClickScript(loc), "setTimeout") {
		t.Error("force click is synchronous")
	}
}

func TestAllocatorOptions(t *testing.T) {
	f := NewFactory(Options{Headless: false, ChromePath: "/usr/bin/chromium"})
	if n := len(f.allocatorOptions()); n <= len(chromedp.DefaultExecAllocatorOptions) {
		t.Fatalf("got %d options", n)
	}
	if f.opts.UserAgent == "" || f.opts.Logger == nil {
		t.Fatal("defaults not applied")
	}
}

func TestDrainDialogs(t *testing.T) {
	p := &Page{dialogs: make(chan string, 1), log: zaptest.NewLogger(t)}
	if got := p.drainDialogs(); len(got) != 0 {
		t.Fatalf("drained %v from an empty page", got)
	}
	p.dialogs <- "joined the waiting list"
	got := p.drainDialogs()
	if len(got) != 1 || got[0] != "joined the waiting list" {
		t.Fatalf("drained %v", got)
	}
	select {
	case msg := <-p.dialogs:
		t.Fatalf("%q still pending", msg)
	default:
	}
}

func openChrome(t *testing.T) (context.Context, *Page) {
	t.Helper()
	if os.Getenv("CHROME_TEST") == "" {
		t.Skip("CHROME_TEST not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)
	p, err := NewFactory(Options{Headless: true}).Open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return ctx, p.(*Page)
}

func TestPageWaitsForLateElements(t *testing.T) {
	ctx, p := openChrome(t)

	html := `data:text/html,<body><script>setTimeout(function(){document.body.innerHTML='<input id="user"><button id="next" onclick="this.textContent=document.getElementById(\'user\').value">next</button>'},1500)</script></body>`
	if err := p.Navigate(ctx, html); err != nil {
		t.Fatal(err)
	}
	if err := p.Type(ctx, "//input[@id='user']", "me@example.com"); err != nil {
		t.Fatalf("type into late input: %v", err)
	}
	if err := p.Click(ctx, "//button[@id='next']"); err != nil {
		t.Fatalf("click late button: %v", err)
	}
	text, ok, err := p.Text(ctx, "//button[@id='next']")
	if err != nil || !ok || text != "me@example.com" {
		t.Fatalf("button text = %q %v %v", text, ok, err)
	}

	p.timeout = time.Second
	start := time.Now()
	err = p.Click(ctx, "//span[@id='never']")
	if !errors.Is(err, ErrElementMissing) {
		t.Fatalf("err = %v", err)
	}
	if took := time.Since(start); took > 5*time.Second {
		t.Fatalf("missing element took %s", took)
	}
}

func TestLateDialogDismissedBeforeNextClick(t *testing.T) {
	ctx, p := openChrome(t)

	html := `data:text/html,<button id="a" onclick="setTimeout(function(){confirm('late')},500)">a</button><button id="b" onclick="alert('second')">b</button>`
	if err := p.Navigate(ctx, html); err != nil {
		t.Fatal(err)
	}
	if err := p.ForceClick(ctx, "//button[@id='a']"); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := p.WaitForAlert(ctx, 100*time.Millisecond); err != nil || ok {
		t.Fatalf("alert inside window: %v %v", ok, err)
	}
	time.Sleep(time.Second)

	if err := p.ForceClick(ctx, "//button[@id='b']"); err != nil {
		t.Fatal(err)
	}
	a, ok, err := p.WaitForAlert(ctx, 3*time.Second)
	if err != nil || !ok || a.Text() != "second" {
		t.Fatalf("alert = %v %v", ok, err)
	}
	if err := a.Accept(ctx); err != nil {
		t.Fatal(err)
	}
}

// Runs against a real Chrome, e.g. CHROME_TEST=1 go test ./internal/infrastructure/browser
func TestPageAgainstChrome(t *testing.T) {
	ctx, p := openChrome(t)

	html := `data:text/html,<div class="box"><p>Open Gym</p><button onclick="alert('joined the waiting list')">go</button></div><div class="box"><p>CrossFit</p></div>`
	if err := p.Navigate(ctx, html); err != nil {
		t.Fatal(err)
	}
	boxes, err := p.FindAll(ctx, "//div[@class='box']")
	if err != nil || len(boxes) != 2 {
		t.Fatalf("boxes = %d, %v", len(boxes), err)
	}
	text, ok, err := p.Text(ctx, boxes[1].Locator()+"/p")
	if err != nil || !ok || text != "CrossFit" {
		t.Fatalf("text = %q %v %v", text, ok, err)
	}
	if _, ok, _ := p.Find(ctx, "//span"); ok {
		t.Fatal("found missing element")
	}
	if err := p.ForceClick(ctx, "//button"); err != nil {
		t.Fatal(err)
	}
	a, ok, err := p.WaitForAlert(ctx, 3*time.Second)
	if err != nil || !ok {
		t.Fatalf("alert %v %v", ok, err)
	}
	if a.Text() != "joined the waiting list" {
		t.Fatalf("alert text = %q", a.Text())
	}
	if err := a.Accept(ctx); err != nil {
		t.Fatal(err)
	}
}
