package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// LotCandidate lote disponible para asignación.
type LotCandidate struct {
	LotID     string
	LotCode   string
	Date      time.Time // recepción (materia prima) o producción (producto final)
	Available decimal.Decimal
}

// Pick porción tomada de un lote.
type Pick struct {
	LotID    string
	LotCode  string
	Quantity decimal.Decimal
}

// SortFIFO ordena por fecha y luego por ID de lote.
func SortFIFO(lots []LotCandidate) {
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].Date.Equal(lots[j].Date) {
			return lots[i].Date.Before(lots[j].Date)
		}
		return lots[i].LotID < lots[j].LotID
	})
}

// PlanFIFO reparte qty entre los lotes en orden FIFO (greedy).
// Devuelve ok=false y el total disponible cuando la suma de los lotes no alcanza.
func PlanFIFO(lots []LotCandidate, qty decimal.Decimal) (picks []Pick, available decimal.Decimal, ok bool) {
	ordered := make([]LotCandidate, 0, len(lots))
	for _, l := range lots {
		if l.Available.IsPositive() {
			ordered = append(ordered, l)
			available = available.Add(l.Available)
		}
	}
	if available.LessThan(qty) {
		return nil, available, false
	}
	SortFIFO(ordered)

	remaining := qty
	for _, l := range ordered {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(l.Available, remaining)
		picks = append(picks, Pick{LotID: l.LotID, LotCode: l.LotCode, Quantity: take})
		remaining = remaining.Sub(take)
	}
	return picks, available, true
}
