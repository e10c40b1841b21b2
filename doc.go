/*
Package easel drives a block editor embedded in a web page through intention
revealing workflows: enter a title, add a block, publish, schedule, preview,
leave the editor.

# Concept

A browser tab (ports.Page) is handed to an orchestrator (editor.Editor). For
every workflow the orchestrator resolves the surface hosting the editor (the
top-level document or an iframe), binds small panel components to it and
sequences their operations. Every wait is bounded, every UI action is
confirmed by its visible effect, and redundant completion signals (a toast and
a panel readout, say) are raced so that the first one wins.

The browser engine is a port. pkg/adapters/chromedp drives Chrome;
pkg/adapters/memory is a scripted editor used by the tests.

# Usage

	ed, err := easel.Open(ctx, browser, "https://wordpress.com/post/example.wordpress.com",
		easel.WithConfig(editor.Config{Viewport: domain.ViewportDesktop}),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := ed.EnterTitle(ctx, "Hello World"); err != nil {
		log.Fatal(err)
	}
	published, err := ed.Publish(ctx, domain.PublishOptions{Visit: true})

Scenario files (pkg/scenario) describe the same workflows in YAML and are run
by the easel CLI, the HTTP API and the MCP server.
*/
package easel
