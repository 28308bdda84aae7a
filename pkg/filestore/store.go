package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/smallbiznis/corpsledger/internal/batch"
	memberdomain "github.com/smallbiznis/corpsledger/internal/member/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Members memberdomain.Service
}

// Store moves the ledger between the database and a JSON document.
type Store struct {
	log     *zap.Logger
	members memberdomain.Service
}

func New(p Params) *Store {
	return &Store{
		log:     p.Log.Named("filestore"),
		members: p.Members,
	}
}

// Import replaces every member found in r. Members fail independently.
func (s *Store) Import(ctx context.Context, r io.Reader) (batch.Result, error) {
	var result batch.Result
	members, err := Decode(r)
	if err != nil {
		return result, err
	}
	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.members.ImportMember(ctx, m); err != nil {
			s.log.Warn("filestore.import.member_failed", zap.String("member_email", m.Email), zap.Error(err))
			result.Fail(m.Email, err)
			continue
		}
		result.Ok(m.Email)
	}
	s.log.Info("filestore.import.finish",
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
	)
	return result, nil
}

func (s *Store) ImportFile(ctx context.Context, path string) (batch.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return batch.Result{}, err
	}
	defer f.Close()
	return s.Import(ctx, f)
}

func (s *Store) Export(ctx context.Context, w io.Writer) error {
	members, err := s.members.LoadAllMembers(ctx)
	if err != nil {
		return err
	}
	if err := Encode(w, members); err != nil {
		return err
	}
	s.log.Info("filestore.export.finish", zap.Int("members", len(members)))
	return nil
}

// ExportFile writes to a temp file next to path and renames it into place.
func (s *Store) ExportFile(ctx context.Context, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".corpsledger-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := s.Export(ctx, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
