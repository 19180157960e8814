package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/repository"
	"github.com/parisxmas/formcraft/internal/service"
)

var (
	exportFormID string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a form's responses as CSV",
	Long: `Writes every response of a form as CSV to --out, or to stdout when --out
is "-". Without --out the file is named after the form title and today's date.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFormID == "" {
			return errors.New("--form is required")
		}
		ctx := cmd.Context()
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		formRepo := repository.NewFormRepo(store)
		forms := service.NewFormService(formRepo)
		drafts := service.NewDraftService(repository.NewDocDraftRepo(store), logger)
		responses := service.NewResponseService(repository.NewResponseRepo(store), formRepo, repository.NewUploadRepo(store), drafts, logger)

		form, err := forms.GetFormByID(ctx, exportFormID)
		if err != nil {
			return err
		}
		out, err := responses.ExportResponsesToCSV(ctx, form.ID, form.Fields)
		if err != nil {
			return err
		}
		if out == "" {
			logger.Info("no responses to export", zap.String("form", form.ID))
			return nil
		}

		switch exportOut {
		case "-":
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		case "":
			exportOut = service.ExportFileName(form.Title, time.Now())
		}
		if err := os.WriteFile(exportOut, []byte(out), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		logger.Info("responses exported", zap.String("form", form.ID), zap.String("file", exportOut))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormID, "form", "", "form id")
	exportCmd.Flags().StringVar(&exportOut, "out", "", `output file, "-" for stdout`)
}
