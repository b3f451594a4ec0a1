package browser

import (
	"encoding/json"
	"fmt"

	"github.com/seblum/octiv-booker/internal/domain/locator"
)

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// nth addresses the i-th (1-based) node matched by loc.
func nth(loc locator.Locator, i int) locator.Locator {
	return locator.Locator(fmt.Sprintf("(%s)[%d]", loc, i))
}

func firstNode(loc locator.Locator) string {
	return fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue`, jsString(string(loc)))
}

func lookupScript(loc locator.Locator) string {
	return fmt.Sprintf(`(() => {
	const n = %s;
	if (!n) return {found: false, text: ""};
	return {found: true, text: (n.innerText ?? n.textContent ?? "").trim()};
})()`, firstNode(loc))
}

func countScript(loc locator.Locator) string {
	return fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength`, jsString(string(loc)))
}

// forceClickScript defers the click so a dialog it opens cannot block the
// evaluation that triggered it.
func forceClickScript(loc locator.Locator) string {
	return fmt.Sprintf(`(() => {
	const n = %s;
	if (!n) return false;
	n.scrollIntoView({block: "center"});
	setTimeout(() => n.click(), 0);
	return true;
})()`, firstNode(loc))
}
