// Package watcher turns filesystem events into organizer work.
//
// Each enabled rule gets its own fsnotify watcher over the rule's source
// directories. Arriving files are not processed on the event thread; they are
// parked with a quiet-period deadline and a background ticker drains paths
// whose deadline has passed. Writes reset the deadline, so a file still being
// downloaded keeps waiting until it goes quiet.
package watcher
