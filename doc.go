// Package robox is a stateful web-browsing automation core. A Browser
// wraps an HTTP client with browser semantics: pages parse into forms you
// fill and submit, tables reconstruct into cell matrices, navigation
// history supports back, forward, and go, and idempotent page opens retry
// transient failures with exponential backoff.
//
// Example:
//
//	b := robox.New(robox.DefaultOptions())
//	page, err := b.Open(ctx, "https://example.org/login")
//	if err != nil {
//		return err
//	}
//	f, _ := page.Form("")
//	f.FillIn("username", "jane")
//	f.FillIn("password", "hunter2")
//	page, err = page.SubmitForm(ctx, f, nil)
//
// A Browser is owned by one logical browsing session; concurrent use
// requires one Browser per task or caller-supplied mutual exclusion.
package robox
