/*
Package thread serializes operations per pipeline thread.

A thread groups related runs and their checkpoint lineage. Starting and
resuming runs must not race on the same checkpoint log, so the Manager hands
out per-thread mutual exclusion: reference-counted in-process locks, plus an
optional distributed lock for multi-replica deployments.
*/
package thread
