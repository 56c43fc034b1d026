// Package framework schedules link pumps, message consumers and outbound
// queues on a single periodic loop, and runs blocking transport readers in
// the background.
package framework
