package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/odyssey-erp/purchase-insights/internal/platform/db"
	"github.com/odyssey-erp/purchase-insights/internal/purchase/pgstore"
)

// ReadSeed decodes a reporting snapshot.
func ReadSeed(r io.Reader) (pgstore.SeedData, error) {
	var data pgstore.SeedData
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return data, fmt.Errorf("decode seed: %w", err)
	}
	return data, nil
}

func runSeed(c *cli.Context) error {
	f, err := os.Open(c.String("file"))
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	data, err := ReadSeed(f)
	if err != nil {
		return err
	}

	pool, err := db.New(c.Context, c.String("pg-dsn"))
	if err != nil {
		return err
	}
	defer pool.Close()

	res, err := pgstore.Seed(c.Context, pool, data)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(c.App.Writer, "company codes=%d suppliers=%d turnover=%d outstanding=%d periods=%d\n",
		res.CompanyCodes, res.Suppliers, res.Turnover, res.Outstanding, res.OutstandingPeriods)
	return nil
}
