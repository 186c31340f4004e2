package services

import (
	"context"
	"fmt"
)

// Listener sequences the pipeline stages. Each stage commits its own
// row-level updates before returning, so a later stage failing never
// needs to undo earlier work.
type Listener struct {
	Fetcher   *Fetcher
	Confirmer *Confirmer
	Sweeper   *Sweeper
	Sender    *Sender
}

// Listen runs fetch, confirm, send in order. Sweeping runs on its own
// trigger because each sweep waits for two mined transactions.
func (l *Listener) Listen(ctx context.Context) error {
	if err := l.Fetcher.SyncDeposits(ctx); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if err := l.Confirmer.ConfirmDeposits(ctx); err != nil {
		return fmt.Errorf("confirm: %w", err)
	}
	if err := l.Sender.SendConfirmedDeposits(ctx); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}
