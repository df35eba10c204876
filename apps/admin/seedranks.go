package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/dojang/core/rank"
	appfs "github.com/trezcool/dojang/fs"
	"github.com/trezcool/dojang/services"
)

type rankLadder struct {
	Ranks []rank.NewRank `yaml:"ranks"`
}

// loadRanks reads a YAML belt ladder from file, or the embedded default one.
func loadRanks(file string) ([]rank.NewRank, error) {
	var (
		data []byte
		err  error
	)
	if file != "" {
		data, err = os.ReadFile(file)
	} else {
		data, err = appfs.FS.ReadFile(appfs.DefaultRanks)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading ranks")
	}

	var ladder rankLadder
	if err = yaml.Unmarshal(data, &ladder); err != nil {
		return nil, errors.Wrap(err, "parsing ranks")
	}
	if len(ladder.Ranks) == 0 {
		return nil, errors.New("no ranks found")
	}
	return ladder.Ranks, nil
}

func (cli *commandLine) seedRanks(ctx context.Context, file string) (created, updated int, err error) {
	ranks, err := loadRanks(file)
	if err != nil {
		return 0, 0, err
	}
	validate, _ := services.NewValidator()
	return cli.rankSvc().Seed(ctx, validate, ranks)
}
