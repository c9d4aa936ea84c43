package board

import (
	"fmt"
	"strconv"
	"strings"

	"kanbase/internal/store"
)

// projectKey returns the configured ticket-id prefix.
func (b *Board) projectKey() (string, error) {
	key, ok, err := b.store.Setting(SettingProjectKey)
	if err != nil {
		return "", err
	}
	if !ok || key == "" {
		return DefaultProjectKey, nil
	}
	return key, nil
}

// NextTicketID issues the next ticket id from the persisted counter. The
// counter is monotonic and never reused, even after deletes. Callers must
// hold the gateway lock; the sequencer does no locking of its own.
func (b *Board) NextTicketID() (string, error) {
	key, err := b.projectKey()
	if err != nil {
		return "", err
	}

	raw, _, err := b.store.Setting(SettingTicketCounter)
	if err != nil {
		return "", err
	}
	counter, _ := strconv.Atoi(raw)
	counter++

	if err := b.store.SetSetting(SettingTicketCounter, strconv.Itoa(counter)); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", key, counter), nil
}

// RekeyProject changes the project key and rewrites the prefix of every
// ticket id carrying the old key, leaving numeric suffixes untouched.
// The rewrite is best-effort row by row; there is no rollback.
func (b *Board) RekeyProject(newKey string) error {
	oldKey, err := b.projectKey()
	if err != nil {
		return err
	}
	if newKey == oldKey {
		return nil
	}

	if err := b.store.SetSetting(SettingProjectKey, newKey); err != nil {
		return err
	}

	tickets, err := b.store.List(store.TableTickets)
	if err != nil {
		return err
	}
	oldPrefix := oldKey + "-"
	for _, rec := range tickets {
		id := rec["id"]
		if !strings.HasPrefix(id, oldPrefix) {
			continue
		}
		rekeyed := newKey + "-" + strings.TrimPrefix(id, oldPrefix)
		if _, err := b.store.UpdateByID(store.TableTickets, id, store.Record{"id": rekeyed}); err != nil {
			return err
		}
	}

	b.logger.Info("project rekeyed", "from", oldKey, "to", newKey)
	return nil
}
