package game

// startReveal shows every hole card and then plays out the remaining
// streets on a timer because no further betting is possible.
func (r *Room) startReveal() {
	s := r.state
	s.DramaticReveal = true
	s.ShowAllHoleCards = true
	r.logger.Info("All-in reveal", "stage", s.Stage, "contenders", len(s.remaining()))
	r.schedule(revealTimer, r.timings.RevealHoleDelay, r.revealNext)
}

// revealNext exposes the next street, or runs the showdown after the river.
func (r *Room) revealNext() {
	defer r.conserve("reveal")()

	s := r.state
	s.Stage = s.Stage.next()
	if s.Stage == StageShowdown {
		r.showdown()
		r.commit()
		return
	}
	s.revealBoard()
	r.commit()
	r.schedule(revealTimer, r.timings.RevealStreetDelay, r.revealNext)
}
