package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/layer-3/afip/core"
	httptransport "github.com/layer-3/afip/transport/http"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "afip",
		Usage: "AFIP WSAA/WSFE electronic invoicing client",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"AFIP_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "ticket",
				Usage:  "obtain or reuse a WSAA access ticket",
				Action: withApp(ticketCmd),
			},
			{
				Name:   "status",
				Usage:  "check WSFE server status (FEDummy)",
				Action: withApp(statusCmd),
			},
			{
				Name:   "totals",
				Usage:  "max registers per FECAESolicitar (FECompTotXRequest)",
				Action: withApp(totalsCmd),
			},
			{
				Name:   "last-voucher",
				Usage:  "last authorized voucher number",
				Flags:  []cli.Flag{voucherTypeFlag},
				Action: withApp(lastVoucherCmd),
			},
			{
				Name:   "next-voucher",
				Usage:  "next voucher number to authorize",
				Flags:  []cli.Flag{voucherTypeFlag},
				Action: withApp(nextVoucherCmd),
			},
			{
				Name:      "authorize",
				Usage:     "request a CAE for the FeCAEReq in a JSON file",
				ArgsUsage: "<file.json>",
				Action:    withApp(authorizeCmd),
			},
			{
				Name:   "points-of-sale",
				Usage:  "list enabled points of sale (FEParamGetPtosVenta)",
				Action: withApp(pointsOfSaleCmd),
			},
			{
				Name:   "serve",
				Usage:  "run the HTTP gateway",
				Action: withApp(serveCmd),
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("afip")
	}
}

var voucherTypeFlag = &cli.IntFlag{
	Name:     "type",
	Aliases:  []string{"t"},
	Usage:    "voucher type (CbteTipo)",
	Required: true,
}

func withApp(action func(*cli.Context, *app) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := newApp(c.String("config"))
		if err != nil {
			return err
		}
		defer a.Close()
		return action(c, a)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ticketCmd(c *cli.Context, a *app) error {
	res := a.auth.GetValidTicket(c.Context)
	if !res.Success {
		return cli.Exit(res.Message, 1)
	}
	return printJSON(map[string]any{
		"success":         res.Success,
		"message":         res.Message,
		"service":         res.Ticket.Service,
		"expiration_time": res.Ticket.ExpirationTime,
	})
}

func statusCmd(c *cli.Context, a *app) error {
	billing, err := a.billing(c.Context)
	if err != nil {
		return err
	}
	status, err := billing.ServerStatus(c.Context)
	if err != nil {
		return err
	}
	return printJSON(status)
}

func totalsCmd(c *cli.Context, a *app) error {
	billing, err := a.billing(c.Context)
	if err != nil {
		return err
	}
	total, err := billing.QueryTotals(c.Context)
	if err != nil {
		return err
	}
	return printJSON(map[string]int{"reg_x_req": total})
}

func lastVoucherCmd(c *cli.Context, a *app) error {
	billing, err := a.billing(c.Context)
	if err != nil {
		return err
	}
	last, err := billing.QueryLastVoucherNumber(c.Context, c.Int("type"))
	if err != nil {
		return err
	}
	return printJSON(map[string]int64{"cbte_nro": last})
}

func nextVoucherCmd(c *cli.Context, a *app) error {
	billing, err := a.billing(c.Context)
	if err != nil {
		return err
	}
	next, err := billing.NextVoucherNumber(c.Context, c.Int("type"))
	if err != nil {
		return err
	}
	return printJSON(map[string]int64{"cbte_nro": next})
}

func authorizeCmd(c *cli.Context, a *app) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: afip authorize <file.json>", 2)
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return errors.Wrap(err, "failed to read request")
	}
	var req core.FeCAEReq
	if err := json.Unmarshal(data, &req); err != nil {
		return errors.Wrap(err, "failed to decode request")
	}

	billing, err := a.billing(c.Context)
	if err != nil {
		return err
	}
	res, err := billing.AuthorizeInvoice(c.Context, req)
	if err != nil {
		return err
	}
	if err := printJSON(res); err != nil {
		return err
	}
	if !res.Success {
		return cli.Exit("voucher rejected", 3)
	}
	return nil
}

func pointsOfSaleCmd(c *cli.Context, a *app) error {
	billing, err := a.billing(c.Context)
	if err != nil {
		return err
	}
	points, err := billing.QueryPointsOfSale(c.Context)
	if err != nil {
		return err
	}
	return printJSON(points)
}

func serveCmd(c *cli.Context, a *app) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	billing, err := a.billing(ctx)
	if err != nil {
		return err
	}

	router := httptransport.SetupRouter(a.auth, billing, httptransport.RouterConfig{
		APIToken: a.cfg.APIToken,
		Logger:   a.logger,
	})
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http gateway listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
