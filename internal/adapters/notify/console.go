package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/strikerromanov/Twitch-Drops-Miner-sub001/internal/domain"
)

// Console implementa ports.Notifier escribiendo a stdout.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador de consola. Con table=true imprime la
// tabla completa de slots por tick; si no, una línea compacta.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// StreamLive imprime la transición offline→live.
func (c *Console) StreamLive(_ context.Context, t domain.LiveTransition) {
	fmt.Fprintf(c.out, "[%s] LIVE %s — %s (%d viewers)\n",
		t.At.Format("15:04:05"), t.ChannelName, t.Game, t.ViewerCount)
}

// AccountDemoted imprime la democión con su razón legible.
func (c *Console) AccountDemoted(_ context.Context, account domain.Account, reason string) {
	fmt.Fprintf(c.out, "[%s] DEMOTED %s → idle: %s\n",
		time.Now().Format("15:04:05"), account.Username, reason)
}

// TickSummary imprime el resultado del ciclo de una cuenta.
func (c *Console) TickSummary(_ context.Context, account domain.Account, channels []domain.FollowedChannel, slots []domain.StreamSlot) {
	live := 0
	for _, ch := range channels {
		if ch.IsLive() {
			live++
		}
	}
	drops, favorites := countByClass(slots)

	if !c.table {
		fmt.Fprintf(c.out, "[%s] %s: %d/%d live → slots d:%d f:%d | %d pts\n",
			time.Now().Format("15:04:05"), account.Username,
			live, len(channels), drops, favorites, account.Points)
		return
	}

	fmt.Fprintf(c.out, "\n[%s] %s — %d/%d channels live, %d points\n",
		time.Now().Format("15:04:05"), account.Username, live, len(channels), account.Points)

	if len(slots) == 0 {
		fmt.Fprintln(c.out, "  (no slots assigned)")
		return
	}

	byID := make(map[string]domain.FollowedChannel, len(channels))
	for _, ch := range channels {
		byID[ch.ChannelID] = ch
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Class", "Channel", "Game", "Viewers", "Points")

	for i, slot := range slots {
		ch := byID[slot.ChannelID]
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(slot.Class),
			ch.Name,
			ch.Game,
			fmt.Sprintf("%d", ch.ViewerCount),
			fmt.Sprintf("%d", ch.Points),
		)
	}
	table.Render()
}

func countByClass(slots []domain.StreamSlot) (drops, favorites int) {
	for _, s := range slots {
		switch s.Class {
		case domain.SlotDrop:
			drops++
		case domain.SlotFavorite:
			favorites++
		}
	}
	return
}
