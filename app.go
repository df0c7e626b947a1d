package main

import (
	"context"
	"io"

	"gorm.io/gorm"

	"planner/pkg/config"
	"planner/pkg/ingest"
	"planner/pkg/llm"
	"planner/pkg/ocr"
	"planner/pkg/pdftext"
	"planner/pkg/planner"
	"planner/pkg/storage"
)

// app holds the services shared by every command.
type app struct {
	cfg     config.Config
	db      *gorm.DB
	repo    *ingest.GormRepository
	ingest  *ingest.Service
	planner *planner.Service
	closers []io.Closer
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		migrate(db)
	}

	a := &app{cfg: cfg, db: db}
	blobs, err := storage.Open(ctx, cfg.Upload)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := blobs.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	client := llm.NewClient(cfg.LLM)
	var cleaner ingest.Cleaner
	if client != nil {
		cleaner = llm.NewCleaner(client)
	}

	scanned := ocr.NewOrchestrator(
		ocr.NewRasterizer(cfg.OCR),
		ocr.NewDocumentAI(cfg.DocAI),
		ocr.NewLocalEngine(cfg.OCR.TesseractLang, cfg.OCR.Workers),
	)

	a.repo = ingest.NewGormRepository(db)
	a.ingest = ingest.NewService(a.repo, blobs, cleaner, pdftext.New(), scanned)
	a.planner = planner.New(db, client)
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
