package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"catalog/internal/api"
	"catalog/internal/format"
	"catalog/internal/models"
)

var outputFormatter format.Formatter = format.JSONFormatter{Indent: "  "}

func writeJSON(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeInstrumentList(instruments []models.Instrument) error {
	for _, in := range instruments {
		if err := writePlain("%s\n", formatInstrumentLine(in)); err != nil {
			return err
		}
	}
	return nil
}

func formatInstrumentLine(in models.Instrument) string {
	parts := []string{fmt.Sprintf("%d", in.ID), fallback(in.Name, "(unnamed)")}
	if in.Type != "" {
		parts = append(parts, "["+in.Type+"]")
	}
	if in.Status != "" {
		parts = append(parts, "- "+in.Status)
	}
	return strings.Join(parts, " ")
}

func writeFileList(files []models.BlobFile) error {
	for _, file := range files {
		if err := writePlain("%s\n", formatFileLine(file)); err != nil {
			return err
		}
	}
	return nil
}

func formatFileLine(file models.BlobFile) string {
	return fmt.Sprintf("%s  %s  %s  %s  %s",
		file.ID,
		file.Filename,
		humanize.IBytes(uint64(max(file.Length, 0))),
		fallback(file.ContentType, "-"),
		formatTime(file.UploadedAt),
	)
}

func writeUpload(resp api.UploadResponse) error {
	return writePlain("stored %s (%s, %s) as %s\n",
		resp.OriginalName, humanize.IBytes(uint64(max(resp.Size, 0))), resp.ContentType, resp.Name)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
