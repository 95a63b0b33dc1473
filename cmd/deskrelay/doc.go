// Command deskrelay is the operator CLI for the desktop side of the browser
// bridge. It can run a standalone hub, probe the hub socket, and manage the
// configuration file.
package main
