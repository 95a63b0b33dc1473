// Package bridge is the surface the desktop application embeds. It owns one
// ipc.Hub, delivers its events to a callback in order, and accepts outbound
// text for broadcast to every connected browser proxy.
package bridge
