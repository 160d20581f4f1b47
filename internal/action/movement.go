package action

import (
	"github.com/hexfoot/engine/internal/hexboard"
	"github.com/hexfoot/engine/internal/pitch"
)

const (
	// NutmegCost is the pace a nutmeg consumes.
	NutmegCost = 2
	// nutmegDefenceBonus is added to the defender's total when stopping a nutmeg.
	nutmegDefenceBonus = 1
	// foulRoll is the defender tackle roll that gives away a free kick.
	foulRoll = 1
)

type moveState int

const (
	moveIdle moveState = iota
	moveSelected
	moveDribbling
	moveNutmegDefender
	moveNutmegAttacker
	moveTackleDefender
	moveTackleAttacker
)

type contest struct {
	attacker *pitch.Token
	defender *pitch.Token
	defRoll  int
	beyond   hexboard.Coord
}

// Movement runs a movement phase: the attack moves and dribbles, then the
// defence moves and tackles. Each sub-phase ends on forfeit.
type Movement struct {
	base
	defending bool
	state     moveState
	selected  *pitch.Token
	paceLeft  int
	dribbled  bool
	contest   contest
	// nutmegged maps a beaten defender to the dribbler who beat it.
	nutmegged map[int]int
	tackled   map[int]bool
	opening   *phaseOpening
}

// phaseOpening is the pitch as it stood before the phase counter moved on.
// It is put back when the phase is abandoned before anything was committed.
type phaseOpening struct {
	pitch  *pitch.Pitch
	phase  int
	moved  []*pitch.Token
	jumped []*pitch.Token
}

func openPhase(p *pitch.Pitch) *phaseOpening {
	o := &phaseOpening{pitch: p, phase: p.MovementPhase}
	for _, t := range p.Tokens() {
		if t.Moved {
			o.moved = append(o.moved, t)
		}
		if t.Jumped {
			o.jumped = append(o.jumped, t)
		}
	}
	return o
}

func (o *phaseOpening) restore() {
	o.pitch.MovementPhase = o.phase
	for _, t := range o.moved {
		t.Moved = true
	}
	for _, t := range o.jumped {
		t.Jumped = true
	}
}

// NewMovement returns an idle movement resolver.
func NewMovement() *Movement {
	return &Movement{}
}

func (m *Movement) Kind() Kind { return KindMovement }

func (m *Movement) Activate(env *Env, _ Setup) (Step, error) {
	p := env.Pitch
	m.Cleanup()
	m.activated = true
	m.opening = openPhase(p)
	p.MovementPhase++
	p.ResetPhaseFlags()

	m.highlight(ReasonMovable, cellsOf(m.movable(p)))
	return m.wait(AwaitTarget, "attack: select a token to move, or forfeit"), nil
}

func (m *Movement) movable(p *pitch.Pitch) []*pitch.Token {
	return filterTokens(p, func(t *pitch.Token) bool {
		return t.IsAttacker != m.defending && !t.Moved && !t.Stunned(p.MovementPhase)
	})
}

func (m *Movement) Handle(env *Env, in Input) (Step, error) {
	if err := m.expect(in, InputClick, InputForfeit, InputRoll); err != nil {
		return Step{}, err
	}

	switch m.state {
	case moveNutmegDefender, moveNutmegAttacker, moveTackleDefender, moveTackleAttacker:
		if in.Kind != InputRoll {
			return Step{}, invalid("a contest roll is pending")
		}
		return m.contestRoll(env, in)
	}
	if in.Kind == InputRoll {
		return Step{}, invalid("no roll pending")
	}
	if in.Kind == InputForfeit {
		return m.forfeit(env), nil
	}

	if m.defending {
		return m.defenceClick(env, in.Cell)
	}
	return m.attackClick(env, in.Cell)
}

func (m *Movement) forfeit(env *Env) Step {
	p := env.Pitch
	if m.selected != nil {
		if m.state == moveDribbling && m.dribbled {
			m.selected.Moved = true
		}
		m.deselect()
		m.highlight(ReasonMovable, cellsOf(m.movable(p)))
		return m.wait(AwaitTarget, m.prompt())
	}
	if !m.defending {
		m.committed = true
		m.defending = true
		m.highlight(ReasonMovable, cellsOf(m.movable(p)))
		return m.wait(AwaitTarget, m.prompt())
	}
	return m.finish(Outcome{Result: ResultCompleted})
}

func (m *Movement) prompt() string {
	if m.defending {
		return "defence: select a token to move or tackle, or forfeit"
	}
	return "attack: select a token to move, or forfeit"
}

func (m *Movement) deselect() {
	m.selected = nil
	m.paceLeft = 0
	m.dribbled = false
	m.state = moveIdle
}

func (m *Movement) attackClick(env *Env, c hexboard.Coord) (Step, error) {
	p := env.Pitch
	if t := p.TokenAt(c); t != nil {
		if !t.IsAttacker {
			if m.state == moveDribbling {
				return m.tryNutmeg(env, t)
			}
			return Step{}, invalid("%s belongs to the defence", t)
		}
		if t.Moved || t.Stunned(p.MovementPhase) {
			return Step{}, invalid("%s cannot move this phase", t)
		}
		if m.state == moveDribbling && m.dribbled {
			m.selected.Moved = true
		}
		m.selected = t
		if p.Holder() == t {
			m.state = moveDribbling
			m.paceLeft = t.Pace
			m.dribbled = false
			m.highlight(ReasonReach, m.dribbleOptions(p))
			return m.wait(AwaitTarget, "dribble one cell at a time"), nil
		}
		m.state = moveSelected
		m.highlight(ReasonReach, keys(p.Board.Reachable(t.Cell, t.Pace, p.MoveRules(t))))
		return m.wait(AwaitTarget, "choose a destination"), nil
	}

	switch m.state {
	case moveSelected:
		return m.walk(env, c)
	case moveDribbling:
		return m.dribble(env, c)
	}
	return Step{}, invalid("select a token first")
}

func (m *Movement) walk(env *Env, c hexboard.Coord) (Step, error) {
	p := env.Pitch
	t := m.selected
	path := p.Board.FindPath(t.Cell, c, t.Pace, p.MoveRules(t))
	if path == nil {
		return Step{}, invalid("%s cannot reach %v", t, c)
	}
	pickup := c == p.Ball.Cell && p.Holder() == nil
	if err := p.Place(t, c); err != nil {
		return Step{}, broken("placing %s: %v", t, err)
	}
	m.committed = true
	t.Moved = true
	m.moveToken(t, path...)
	m.deselect()

	if pickup {
		p.Touch(t)
		m.logEvent(t, EventPickup, 0, nil, "")
		if p.GiveBallTo(t.Side) {
			return m.finish(Outcome{Result: ResultPossessionWon}), nil
		}
	}
	m.highlight(ReasonMovable, cellsOf(m.movable(p)))
	return m.wait(AwaitTarget, m.prompt()), nil
}

func (m *Movement) dribbleOptions(p *pitch.Pitch) []hexboard.Coord {
	var out []hexboard.Coord
	if m.paceLeft < 1 {
		return out
	}
	for _, n := range p.Board.Neighbors(m.selected.Cell) {
		if p.Board.InBounds(n.Coord) && !n.Occupied() {
			out = append(out, n.Coord)
		}
	}
	return out
}

func (m *Movement) dribble(env *Env, c hexboard.Coord) (Step, error) {
	p := env.Pitch
	t := m.selected
	switch {
	case m.paceLeft < 1:
		return Step{}, invalid("%s has no pace left", t)
	case !hexboard.Adjacent(t.Cell, c):
		return Step{}, invalid("dribble one cell at a time")
	case !p.Board.InBounds(c):
		return Step{}, invalid("%v is off the pitch", c)
	}
	from := t.Cell
	if err := p.Place(t, c); err != nil {
		return Step{}, invalid("%v", err)
	}
	m.committed = true
	p.PlaceBall(c)
	m.moveToken(t, c)
	m.cmds = append(m.cmds, MoveBall{From: from, To: c})
	m.paceLeft--
	m.dribbled = true
	return m.afterDribble(p), nil
}

func (m *Movement) afterDribble(p *pitch.Pitch) Step {
	if m.paceLeft == 0 {
		m.selected.Moved = true
		m.deselect()
		m.highlight(ReasonMovable, cellsOf(m.movable(p)))
		return m.wait(AwaitTarget, m.prompt())
	}
	m.state = moveDribbling
	opts := m.dribbleOptions(p)
	for _, d := range p.Adjacent(m.selected.Cell, m.selected.Side.Opponent()) {
		if _, ok := m.nutmegSpace(p, d); ok && m.paceLeft >= NutmegCost {
			m.cmds = append(m.cmds, Highlight{Cells: []hexboard.Coord{d.Cell}, Reason: ReasonNutmeg})
		}
	}
	m.cmds = append(m.cmds, Highlight{Cells: opts, Reason: ReasonReach})
	return m.wait(AwaitTarget, "keep dribbling, nutmeg, or forfeit")
}

// nutmegSpace finds the free cell beyond a defender, preferring the one in
// line with the dribbler.
func (m *Movement) nutmegSpace(p *pitch.Pitch, d *pitch.Token) (hexboard.Coord, bool) {
	a := m.selected
	if d.Stunned(p.MovementPhase) || m.beaten(d, a) {
		return hexboard.Coord{}, false
	}
	free := func(c hexboard.Coord) bool {
		return p.Board.InBounds(c) && p.TokenAt(c) == nil
	}
	if dir, ok := hexboard.DirectionBetween(a.Cell, d.Cell); ok {
		if c := hexboard.Step(a.Cell, dir, 2); free(c) {
			return c, true
		}
	}
	for _, n := range p.Board.Neighbors(d.Cell) {
		if hexboard.Distance(a.Cell, n.Coord) == 2 && free(n.Coord) {
			return n.Coord, true
		}
	}
	return hexboard.Coord{}, false
}

func (m *Movement) tryNutmeg(env *Env, d *pitch.Token) (Step, error) {
	p := env.Pitch
	a := m.selected
	if !hexboard.Adjacent(a.Cell, d.Cell) {
		return Step{}, invalid("%s is not adjacent", d)
	}
	if m.paceLeft < NutmegCost {
		return Step{}, invalid("a nutmeg needs %d pace", NutmegCost)
	}
	beyond, ok := m.nutmegSpace(p, d)
	if !ok {
		return Step{}, invalid("%s cannot be nutmegged", d)
	}
	m.committed = true
	m.contest = contest{attacker: a, defender: d, beyond: beyond}
	m.state = moveNutmegDefender
	return m.wait(AwaitRoll, "nutmeg: defender roll for "+d.String()), nil
}

func (m *Movement) defenceClick(env *Env, c hexboard.Coord) (Step, error) {
	p := env.Pitch
	if t := p.TokenAt(c); t != nil {
		if t.IsAttacker {
			if p.Holder() == t && m.selected != nil {
				return m.tryTackle(env, m.selected, t)
			}
			return Step{}, invalid("%s belongs to the attack", t)
		}
		if t.Stunned(p.MovementPhase) {
			return Step{}, invalid("%s is stunned", t)
		}
		m.selected = t
		m.state = moveSelected
		if t.Moved {
			return m.wait(AwaitTarget, "tackle the ball carrier, or forfeit"), nil
		}
		m.highlight(ReasonReach, keys(p.Board.Reachable(t.Cell, t.Pace, p.MoveRules(t))))
		return m.wait(AwaitTarget, "choose a destination, tackle, or forfeit"), nil
	}
	if m.selected == nil {
		return Step{}, invalid("select a token first")
	}
	if m.selected.Moved {
		return Step{}, invalid("%s already moved", m.selected)
	}
	return m.walk(env, c)
}

func (m *Movement) tryTackle(env *Env, d, a *pitch.Token) (Step, error) {
	p := env.Pitch
	switch {
	case !hexboard.Adjacent(d.Cell, a.Cell):
		return Step{}, invalid("%s is not adjacent to %s", d, a)
	case m.tackled[d.ID]:
		return Step{}, invalid("%s already tackled this phase", d)
	case m.beaten(d, a):
		return Step{}, invalid("%s was nutmegged by %s", d, a)
	case d.Stunned(p.MovementPhase):
		return Step{}, invalid("%s is stunned", d)
	}
	m.committed = true
	m.tackled[d.ID] = true
	m.contest = contest{attacker: a, defender: d}
	m.state = moveTackleDefender
	return m.wait(AwaitRoll, "tackle: defender roll for "+d.String()), nil
}

func (m *Movement) contestRoll(env *Env, in Input) (Step, error) {
	p := env.Pitch
	c := &m.contest
	switch m.state {
	case moveNutmegDefender:
		c.defRoll = in.Roll.Value
		m.rolled("nutmegDefence", c.defender, in.Roll, in.Roll.Value+c.defender.Tackling+nutmegDefenceBonus, 0)
		m.state = moveNutmegAttacker
		return m.wait(AwaitRoll, "nutmeg: attacker roll for "+c.attacker.String()), nil

	case moveNutmegAttacker:
		def := c.defRoll + c.defender.Tackling + nutmegDefenceBonus
		att := in.Roll.Value + c.attacker.Dribbling
		m.rolled("nutmegAttack", c.attacker, in.Roll, att, 0)
		return m.settleNutmeg(p, att, def), nil

	case moveTackleDefender:
		c.defRoll = in.Roll.Value
		m.rolled("tackleDefence", c.defender, in.Roll, in.Roll.Value+c.defender.Tackling, 0)
		c.defender.Moved = true
		if in.Roll.Value == foulRoll {
			m.logEvent(c.defender, EventFoul, 0, c.attacker, "")
			return m.finish(Outcome{
				Result: ResultHandoff,
				Next:   KindFreeKick,
				Setup:  Setup{Team: c.attacker.Side, Origin: c.attacker.Cell},
			}), nil
		}
		m.state = moveTackleAttacker
		return m.wait(AwaitRoll, "tackle: attacker roll for "+c.attacker.String()), nil

	case moveTackleAttacker:
		def := c.defRoll + c.defender.Tackling
		att := in.Roll.Value + c.attacker.Dribbling
		m.rolled("tackleAttack", c.attacker, in.Roll, att, 0)
		return m.settleTackle(p, att, def), nil
	}
	return Step{}, broken("movement contest in state %d", m.state)
}

func (m *Movement) settleNutmeg(p *pitch.Pitch, att, def int) Step {
	c := m.contest
	switch {
	case def > att:
		c.attacker.StunnedUntil = p.MovementPhase + 1
		m.logEvent(c.attacker, EventNutmeg, att, c.defender, "stopped")
		return m.dispossess(p, c.defender)
	case def == att:
		m.logEvent(c.attacker, EventNutmeg, att, c.defender, "tie")
		return m.finish(Outcome{
			Result: ResultHandoff,
			Next:   KindLooseBall,
			Setup:  Setup{Origin: c.attacker.Cell, Hanging: pitch.PassNutmeg},
		})
	}

	from := c.attacker.Cell
	if err := p.Place(c.attacker, c.beyond); err != nil {
		return m.finish(Outcome{Result: ResultCompleted})
	}
	p.PlaceBall(c.beyond)
	p.Touch(c.attacker)
	m.moveToken(c.attacker, c.beyond)
	m.cmds = append(m.cmds, MoveBall{From: from, To: c.beyond})
	m.nutmegged[c.defender.ID] = c.attacker.ID
	m.paceLeft -= NutmegCost
	m.dribbled = true
	m.logEvent(c.attacker, EventNutmeg, att, c.defender, "success")
	m.contest = contest{}
	return m.afterDribble(p)
}

func (m *Movement) settleTackle(p *pitch.Pitch, att, def int) Step {
	c := m.contest
	switch {
	case def > att:
		c.attacker.StunnedUntil = p.MovementPhase + 1
		m.logEvent(c.defender, EventTackle, def, c.attacker, "won")
		return m.dispossess(p, c.defender)
	case def == att:
		m.logEvent(c.defender, EventTackle, def, c.attacker, "tie")
		return m.finish(Outcome{
			Result: ResultHandoff,
			Next:   KindLooseBall,
			Setup:  Setup{Origin: c.attacker.Cell, Hanging: pitch.PassTackle},
		})
	}
	c.defender.StunnedUntil = p.MovementPhase + 1
	m.logEvent(c.defender, EventTackle, def, c.attacker, "lost")
	m.contest = contest{}
	m.deselect()
	m.highlight(ReasonMovable, cellsOf(m.movable(p)))
	return m.wait(AwaitTarget, m.prompt())
}

func (m *Movement) beaten(d, a *pitch.Token) bool {
	by, ok := m.nutmegged[d.ID]
	return ok && by == a.ID
}

func (m *Movement) dispossess(p *pitch.Pitch, winner *pitch.Token) Step {
	m.cmds = append(m.cmds, MoveBall{From: p.Ball.Cell, To: winner.Cell})
	p.PlaceBall(winner.Cell)
	p.GiveBallTo(winner.Side)
	p.Touch(winner)
	return m.finish(Outcome{Result: ResultPossessionWon})
}

func (m *Movement) Cleanup() {
	if m.opening != nil && m.activated && !m.committed {
		m.opening.restore()
	}
	m.opening = nil
	m.reset()
	m.defending = false
	m.deselect()
	m.contest = contest{}
	m.nutmegged = make(map[int]int)
	m.tackled = make(map[int]bool)
}

func keys(reach map[hexboard.Coord]hexboard.Reach) []hexboard.Coord {
	out := make([]hexboard.Coord, 0, len(reach))
	for c := range reach {
		out = append(out, c)
	}
	return out
}
