// kardex_import carga movimientos históricos desde un CSV al kardex usando el mismo Ledger
// que la API (validaciones, bloqueo por producto y proyección incluidos).
//
// Uso: go run ./cmd/kardex_import -file movimientos.csv [-charset latin1] [-sep ';'] [-user migracion]
// Las filas se aplican en el orden del archivo; una salida sin saldo se informa y se omite.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"unicode/utf8"

	"github.com/jhoicas/kardex-api/internal/app"
	"github.com/jhoicas/kardex-api/internal/infrastructure/csvimport"
	"github.com/jhoicas/kardex-api/internal/infrastructure/storage"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

func main() {
	file := flag.String("file", "", "ruta del CSV de movimientos")
	charset := flag.String("charset", "utf-8", "codificación: utf-8, latin1, windows-1252")
	sep := flag.String("sep", ",", "separador de campos")
	user := flag.String("user", "import:csv", "usuario registrado en los movimientos")
	flag.Parse()

	if *file == "" || utf8.RuneCountInString(*sep) != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Component("csv_import")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("abrir CSV")
	}
	defer f.Close()

	st, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.Close()
	svc := app.NewServices(st, cfg, log)

	comma, _ := utf8.DecodeRuneInString(*sep)
	var applied, rejected int
	rowErrs, err := csvimport.Read(f, csvimport.Options{Charset: *charset, Comma: comma, UserID: *user}, func(row csvimport.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		mov, err := svc.Ledger.Append(ctx, row.Input)
		if err != nil {
			rejected++
			log.Error().Err(err).
				Int("line", row.Line).
				Str("product_id", row.Input.ProductID).
				Msg("movimiento rechazado")
			return nil
		}
		applied++
		log.Debug().Int("line", row.Line).Str("movement_id", mov.ID).Msg("movimiento importado")
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("importación interrumpida")
	}
	for _, re := range rowErrs {
		log.Error().Err(re.Err).Int("line", re.Line).Msg("fila inválida")
	}

	log.Info().
		Int("applied", applied).
		Int("rejected", rejected).
		Int("invalid", len(rowErrs)).
		Msg("importación finalizada")

	if err != nil || rejected > 0 || len(rowErrs) > 0 {
		st.Close()
		os.Exit(1)
	}
}
