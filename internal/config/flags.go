package config

import "github.com/spf13/pflag"

// BindClientFlags registers the client flags on fs. The returned function
// copies every flag the user set onto a loaded configuration.
func BindClientFlags(fs *pflag.FlagSet) func(*Client) {
	var v Client
	fs.StringVarP(&v.ServerAddress, "server", "s", "", "server URL (ws://host:port/ or tcp://host:port)")
	fs.StringVarP(&v.Username, "username", "u", "", "name to register with")
	fs.StringVar(&v.LogLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")
	fs.IntVar(&v.BufferSize, "buffer-size", 0, "inbound and outbound queue capacity")
	fs.BoolVar(&v.NoColor, "no-color", false, "disable colored output")

	return func(c *Client) {
		if fs.Changed("server") {
			c.ServerAddress = v.ServerAddress
		}
		if fs.Changed("username") {
			c.Username = v.Username
		}
		if fs.Changed("log-level") {
			c.LogLevel = normalizeLevel(v.LogLevel)
		}
		if fs.Changed("buffer-size") {
			c.BufferSize = v.BufferSize
		}
		if fs.Changed("no-color") {
			c.NoColor = v.NoColor
		}
	}
}

// BindServerFlags registers the server flags on fs.
func BindServerFlags(fs *pflag.FlagSet) func(*Server) {
	var v Server
	fs.StringVarP(&v.ListenAddress, "listen", "l", "", "address to listen on")
	fs.StringVar(&v.LogLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")
	fs.IntVar(&v.OutgoingBuffer, "outgoing-buffer", 0, "per-client outgoing queue capacity")

	return func(s *Server) {
		if fs.Changed("listen") {
			s.ListenAddress = v.ListenAddress
		}
		if fs.Changed("log-level") {
			s.LogLevel = normalizeLevel(v.LogLevel)
		}
		if fs.Changed("outgoing-buffer") {
			s.OutgoingBuffer = v.OutgoingBuffer
		}
	}
}
