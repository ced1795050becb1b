package bands

// Reciprocal obligations are directed weights in [0, 1] from this band to a
// partner. They form and strengthen only through co-aggregation, decay when
// invoked for aid, and are pruned when near zero or when the partner is
// removed from the run.

// pruneBelow drops obligations too weak to matter, keeping the map sparse.
const pruneBelow = 0.02

// FormObligation creates or strengthens the tie to a partner by 0.1,
// capped at 1.0.
func (b *Band) FormObligation(partner BandID) {
	w := b.Obligations[partner] + 0.1
	if w > 1.0 {
		w = 1.0
	}
	b.Obligations[partner] = w
}

// InvokeObligations calls on partners for aid during a shortfall. Each
// partner can supply up to weight·0.5·partnerResources; every invoked weight
// decays by ×0.7 immediately, whether or not the full need was met. Partners
// are consulted in ascending ID order so the draw order is reproducible.
// Returns the total aid received, at most need.
func (b *Band) InvokeObligations(need float64, resourcesOf func(BandID) float64, order []BandID) float64 {
	if need <= 0 {
		return 0
	}
	received := 0.0
	for _, partner := range order {
		w, ok := b.Obligations[partner]
		if !ok {
			continue
		}
		supply := w * 0.5 * resourcesOf(partner)
		if remaining := need - received; supply > remaining {
			supply = remaining
		}
		received += supply

		w *= 0.7
		if w < pruneBelow {
			delete(b.Obligations, partner)
		} else {
			b.Obligations[partner] = w
		}
		if received >= need {
			break
		}
	}
	return received
}

// DecayObligations applies a slow baseline decay to every tie, pruning the
// ones that fade out. Keeps stale connectivity from accumulating across
// decades without reinforcement.
func (b *Band) DecayObligations(factor float64) {
	for partner, w := range b.Obligations {
		w *= factor
		if w < pruneBelow {
			delete(b.Obligations, partner)
		} else {
			b.Obligations[partner] = w
		}
	}
}

// DropPartner removes any tie to a band that left the simulation.
func (b *Band) DropPartner(partner BandID) {
	delete(b.Obligations, partner)
}
