/*
Package domain contains the core models of the easel editor orchestrator.

It defines the entities shared by the orchestrator, its panels and the
scenario layer. This package is kept pure and free of browser, storage or
transport dependencies, following Hexagonal Architecture principles.

# Key Entities

  - Viewport: the runtime mode (standard or compact) the editor runs in.
  - EditorStatus: the editor lifecycle state machine (Unloaded, Loading, Ready, ...).
  - Workflow options: immutable inputs such as PublishOptions and VisibilityOptions.
  - RunRecord: the persisted outcome of a scenario run.
  - Errors: the failure taxonomy (SurfaceNotFound, VerificationMismatch, ModeMismatch, Timeout, DialogUnhandled).
*/
package domain
