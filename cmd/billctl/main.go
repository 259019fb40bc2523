package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"bhasapos/backend/internal/config"
	"bhasapos/backend/internal/service"
	"bhasapos/backend/internal/store/backend"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shop, err := config.LoadShop(cfg.ShopProfilePath)
	if err != nil {
		logger.WithError(err).Debug("shop profile unavailable, using built-in header")
	}
	archive, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("bill archive unavailable")
	}

	app := newApp(service.New(archive.Bills, shop, logger), os.Stdout)
	runErr := app.Run(os.Args)
	if err := archive.Close(); err != nil {
		logger.WithError(err).Warn("close archive")
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}

func newApp(svc *service.Service, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "billctl",
		Usage:     "inspect and maintain the saved bill archive",
		Writer:    out,
		ErrWriter: out,
		// main reports errors; the default handler would exit the process.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list saved bills",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "newest", Usage: "show the most recent bill first"},
				},
				Action: func(c *cli.Context) error {
					bills, err := svc.ListBills(c.Context, orderFlag(c))
					if err != nil {
						return err
					}
					if len(bills) == 0 {
						fmt.Fprintln(out, "no saved bills")
						return nil
					}
					tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tINVOICE\tDATE\tTIME\tCUSTOMER\tITEMS\tTOTAL")
					for _, bill := range bills {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
							bill.ID, bill.InvoiceNumber, bill.Date, bill.Time, bill.CustomerName, len(bill.Items), bill.Total.StringFixed(2))
					}
					return tw.Flush()
				},
			},
			{
				Name:      "show",
				Usage:     "print a saved bill as JSON",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireID(c)
					if err != nil {
						return err
					}
					bill, err := svc.GetBill(c.Context, id)
					if err != nil {
						return err
					}
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(bill)
				},
			},
			{
				Name:      "preview",
				Usage:     "render a saved bill",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Value: "text", Usage: "text, html, pdf or escpos"},
					&cli.StringFlag{Name: "out", Usage: "write to a file instead of stdout"},
				},
				Action: func(c *cli.Context) error {
					id, err := requireID(c)
					if err != nil {
						return err
					}
					doc, err := svc.RenderBill(c.Context, id, c.String("format"))
					if err != nil {
						return err
					}
					if path := c.String("out"); path != "" {
						if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
							return err
						}
						fmt.Fprintf(out, "wrote %s\n", path)
						return nil
					}
					_, err = out.Write(doc.Body)
					return err
				},
			},
			{
				Name:      "delete",
				Usage:     "remove a saved bill",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireID(c)
					if err != nil {
						return err
					}
					if err := svc.DeleteBill(c.Context, id); err != nil {
						return err
					}
					fmt.Fprintf(out, "deleted %s\n", id)
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "write the archive to an XLSX workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "bills.xlsx", Usage: "destination file"},
					&cli.BoolFlag{Name: "newest", Usage: "most recent bill first"},
				},
				Action: func(c *cli.Context) error {
					body, err := svc.ExportBills(c.Context, orderFlag(c))
					if err != nil {
						return err
					}
					path := c.String("out")
					if err := os.WriteFile(path, body, 0o644); err != nil {
						return err
					}
					fmt.Fprintf(out, "wrote %s\n", path)
					return nil
				},
			},
		},
	}
}

func orderFlag(c *cli.Context) string {
	if c.Bool("newest") {
		return "newest"
	}
	return "stored"
}

func requireID(c *cli.Context) (string, error) {
	id := c.Args().First()
	if id == "" {
		return "", cli.Exit("missing bill id", 2)
	}
	return id, nil
}
