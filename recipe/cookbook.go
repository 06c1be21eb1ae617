package recipe

import (
	"time"

	"pipelined.dev/audiograph"
	"pipelined.dev/audiograph/effect"
	"pipelined.dev/audiograph/filter"
	"pipelined.dev/audiograph/mixer"
	"pipelined.dev/audiograph/source"
)

// Recipe names.
const (
	Balancer = "balancer"
	Formant  = "formant"
	LowShelf = "lowshelf"
)

// frequencyRamp smooths oscillator frequency changes of balancer recipe.
const frequencyRamp = 500 * time.Millisecond

func init() {
	register(Balancer, recipe{
		description: "oscillator follows the level of the player",
		build:       balancer,
	})
	register(Formant, recipe{
		description: "formant filter applied to the player",
		build:       formant,
	})
	register(LowShelf, recipe{
		description: "low shelf filter applied to the player",
		build:       lowShelf,
	})
}

// balancer: player -> fader -> balancer(osc, comparator: fader) ->
// dry/wet(fader, balancer).
func balancer(b *builder, player *source.Player) audiograph.Node {
	var (
		osc    = source.NewOscillator(source.Sine)
		fader  = effect.NewFader()
		bal    = effect.NewBalancer()
		dryWet = mixer.NewDryWet(mixer.Linear)
	)
	b.add(osc, fader, bal, dryWet)
	b.connect(player, fader, 0)
	b.connect(osc, bal, effect.InputSocket)
	b.connect(fader, bal, effect.ComparatorSocket)
	b.connect(fader, dryWet, mixer.DrySocket)
	b.connect(bal, dryWet, mixer.WetSocket)

	b.expose(osc, "frequency", frequencyRamp)
	b.expose(player, "rate", 0)
	b.expose(dryWet, "balance", 0)
	return dryWet
}

// formant: player -> formant -> dry/wet(player, formant).
func formant(b *builder, player *source.Player) audiograph.Node {
	f := filter.NewFormant()
	return wrap(b, player, f, "centerFrequency", "attackDuration", "decayDuration")
}

// lowShelf: player -> low shelf -> dry/wet(player, low shelf).
func lowShelf(b *builder, player *source.Player) audiograph.Node {
	f := filter.NewLowShelf()
	return wrap(b, player, f, "cutoffFrequency", "gain")
}

// wrap mixes the player with its processed copy and exposes params of the
// effect with the balance.
func wrap(b *builder, player *source.Player, fx audiograph.Node, params ...string) audiograph.Node {
	dryWet := mixer.NewDryWet(mixer.Linear)
	b.add(fx, dryWet)
	b.connect(player, fx, 0)
	b.connect(player, dryWet, mixer.DrySocket)
	b.connect(fx, dryWet, mixer.WetSocket)
	for _, id := range params {
		b.expose(fx, id, 0)
	}
	b.expose(dryWet, "balance", 0)
	return dryWet
}
