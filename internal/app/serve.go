package app

import (
	"context"
	"fmt"
	"net"

	"github.com/tyforge/client/internal/httpserver"
	"github.com/tyforge/client/internal/stub"
)

func (c *cli) stub(ctx context.Context, args []string) error {
	verb, rest := sub(args, "")
	if verb != "serve" {
		return fmt.Errorf("stub: expected \"serve\", got %q", verb)
	}

	fs := c.flags("stub serve")
	port := fs.Int("port", c.cfg.Stub.Port, "port to listen on")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	handler, err := c.stubServer()
	if err != nil {
		return err
	}

	srv := httpserver.New(*port, handler, c.logger)
	ln, err := srv.Listen()
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	c.logger.Info("starting backend stand-in", "addr", ln.Addr().String(), "adminEmail", c.cfg.Stub.AdminEmail)
	fmt.Fprintf(c.out, "stand-in listening on http://%s\n", loopback(ln))
	return srv.Run(ctx, ln)
}

// stubServer builds the stand-in from the configured secrets and seed admin.
func (c *cli) stubServer() (*stub.Server, error) {
	return stub.NewServer(stub.NewStore(), stub.Options{
		JWTSecret:     c.cfg.Stub.JWTSecret,
		TokenTTL:      c.cfg.Stub.TokenTTL,
		LoginRate:     c.cfg.Stub.LoginRate,
		AdminEmail:    c.cfg.Stub.AdminEmail,
		AdminPassword: c.cfg.Stub.AdminPassword,
		Logger:        c.logger,
	})
}

func loopback(ln net.Listener) string {
	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		return ln.Addr().String()
	}
	return fmt.Sprintf("localhost:%d", addr.Port)
}
