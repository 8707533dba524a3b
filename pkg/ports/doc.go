/*
Package ports defines the interfaces between the orchestration core and its
adapters: checkpoint persistence, distributed locking, and the external
collaborators the pipeline nodes delegate their actual work to.

Adapters live under pkg/adapters and internal; the core depends only on the
interfaces here.
*/
package ports
