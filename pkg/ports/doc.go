/*
Package ports defines the driven ports (interfaces) of the easel orchestrator.

These interfaces decouple the editor workflows from the browser automation
engine, the run storage backend and the lock provider.

# Key Interfaces

  - Browser / Page / Surface: the injected browser-automation capability (chromedp, in-memory).
  - RunStore: persists scenario run records.
  - DistributedLocker: provides cross-process leases for session keys.
  - ScenarioRunner: the entrypoint consumed by transport adapters (HTTP, MCP).
*/
package ports
