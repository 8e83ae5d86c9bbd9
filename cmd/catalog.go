package cmd

import (
	"context"
	"io"
	"os"

	"github.com/go-extras/cobraflags"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"kairos/data"
)

const fileFlag = "file"

var catalogFlags = map[string]cobraflags.Flag{
	fileFlag: &cobraflags.StringFlag{
		Name:  fileFlag,
		Value: "",
		Usage: "CSV file of name,barcode,price,quantity,price_per_kg rows. Empty loads the bundled sample catalog",
	},
}

func newCatalogCommand() *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the product catalog",
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import products from a CSV file in one transaction",
		RunE:  importCatalogCommand,
	}
	cobraflags.RegisterMap(importCmd, catalogFlags)

	catalogCmd.AddCommand(importCmd)

	return catalogCmd
}

func openCatalog(path string) (io.ReadCloser, error) {
	if path == "" {
		return data.FS.Open(data.SampleCatalog)
	}
	return os.Open(path)
}

func importCatalogCommand(_ *cobra.Command, _ []string) error {
	path := catalogFlags[fileFlag].GetString()

	f, err := openCatalog(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ps, err := data.ReadCatalog(f)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(false)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.ImportProducts(context.Background(), ps)
	if err != nil {
		return err
	}

	source := path
	if source == "" {
		source = data.SampleCatalog + " (bundled)"
	}
	logrus.WithFields(logrus.Fields{"products": n, "source": source}).Info("catalog imported")

	return nil
}
