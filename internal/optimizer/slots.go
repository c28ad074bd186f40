package optimizer

import "github.com/fanvise/fanvise/internal/models"

// slotHierarchy maps each roster slot to the positions that can fill it.
// BE accepts any non-IR player; IR only accepts IR-eligible players.
var slotHierarchy = map[string][]string{
	models.SlotPG:   {models.SlotPG},
	models.SlotSG:   {models.SlotSG},
	models.SlotSF:   {models.SlotSF},
	models.SlotPF:   {models.SlotPF},
	models.SlotC:    {models.SlotC},
	models.SlotG:    {models.SlotPG, models.SlotSG},
	models.SlotF:    {models.SlotSF, models.SlotPF},
	models.SlotGF:   {models.SlotPG, models.SlotSG, models.SlotSF, models.SlotPF},
	models.SlotFC:   {models.SlotSF, models.SlotPF, models.SlotC},
	models.SlotUtil: {models.SlotPG, models.SlotSG, models.SlotSF, models.SlotPF, models.SlotC},
	models.SlotBE:   {models.SlotPG, models.SlotSG, models.SlotSF, models.SlotPF, models.SlotC},
	models.SlotIR:   {models.SlotIR},
}

// specificSlots are filled before flex slots during greedy assignment.
var specificSlots = []string{models.SlotPG, models.SlotSG, models.SlotSF, models.SlotPF, models.SlotC}

// flexSlots in fill order, broadest last.
var flexSlots = []string{models.SlotG, models.SlotF, models.SlotGF, models.SlotFC, models.SlotUtil}

// CanFillSlot reports whether a player with the given eligible positions
// can occupy the slot.
func CanFillSlot(eligible []string, slot string) bool {
	accepts, ok := slotHierarchy[slot]
	if !ok {
		return false
	}
	for _, pos := range eligible {
		for _, a := range accepts {
			if pos == a {
				return true
			}
		}
	}
	return false
}

// startingSlotOrder returns the starting slots present in rosterSlots
// (count > 0, excluding BE and IR), specific labels before flex labels.
func startingSlotOrder(rosterSlots models.RosterSlots) []string {
	var order []string
	for _, slot := range specificSlots {
		if rosterSlots[slot] > 0 {
			order = append(order, slot)
		}
	}
	for _, slot := range flexSlots {
		if rosterSlots[slot] > 0 {
			order = append(order, slot)
		}
	}
	return order
}

// StartingSlots returns the non-bench slot labels with openings.
func StartingSlots(rosterSlots models.RosterSlots) []string {
	return startingSlotOrder(rosterSlots)
}
