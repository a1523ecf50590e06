package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pbrlang/pbr/cache"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspeciona ou limpa o cache de conversões",
	}

	info := &cobra.Command{
		Use:   "info",
		Short: "Mostra o local e o tamanho do cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache()
			if err != nil {
				return err
			}
			defer store.Close()
			n, err := store.Len()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s: %d entradas\n", store.Path(), n)
			return nil
		},
	}

	var older time.Duration
	purge := &cobra.Command{
		Use:   "limpar",
		Short: "Remove entradas do cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCache()
			if err != nil {
				return err
			}
			defer store.Close()

			var n int64
			if older > 0 {
				n, err = store.PurgeBefore(time.Now().Add(-older))
			} else {
				n, err = store.Purge()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%d entradas removidas\n", n)
			return nil
		},
	}
	purge.Flags().DurationVar(&older, "mais-antigas-que", 0, "remove só entradas mais antigas que esta duração (ex.: 720h)")

	cmd.AddCommand(info, purge)
	return cmd
}

func openCache() (*cache.Store, error) {
	dir, err := cache.DefaultDir()
	if err != nil {
		return nil, err
	}
	return cache.Open(dir)
}
