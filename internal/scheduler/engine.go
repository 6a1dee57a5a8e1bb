package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"
)

// ════════════════════════════════════════════════════════════
// 排课引擎
//
// 约束满足 + 冲突导向回跳：
//   1. 课程按受限程度（可用教室数 × 教师可用节次数）升序，越受限越先排
//   2. 每次课的候选按 (星期, 节次, 教室编号, 教师 ID) 固定顺序，取第一个可行者
//   3. 无可行候选时回跳到冲突集中最深的课次，换下一个候选
//   4. 超出回溯/节点/时间预算后不再回跳，剩余课次贪心放置，放不下的记为未排
// ════════════════════════════════════════════════════════════

// State 引擎状态
type State string

const (
	StateUnstarted State = "unstarted"
	StatePlacing   State = "placing"
	StateComplete  State = "complete"
	StatePartial   State = "partial_with_unplaced"
	StateDone      State = "done"
)

// ErrEngineReused 同一引擎实例只能运行一次
var ErrEngineReused = errors.New("排课引擎实例不可重复运行")

// Options 引擎参数
type Options struct {
	MaxBacktracks     int
	MaxNodes          int
	Timeout           time.Duration
	AllowSameDay      bool
	RelaxSessionCount bool   // 每门课只排一次，需由调用方显式开启
	Seed              *int64 // 非 nil 时按种子打乱候选顺序，同一种子结果相同
	Logger            *zap.Logger
}

// DefaultOptions 默认预算
func DefaultOptions() Options {
	return Options{
		MaxBacktracks: 10000,
		MaxNodes:      200000,
		Timeout:       5 * time.Second,
	}
}

// UnplacedSession 未能排入的课次
type UnplacedSession struct {
	SubjectID    string      `json:"subject_id"`
	SubjectCode  string      `json:"subject_code"`
	SessionIndex int         `json:"session_index"`
	Kind         SessionKind `json:"kind"`
	Reason       Reason      `json:"reason"`
}

func (u UnplacedSession) String() string {
	return fmt.Sprintf("%s#%d(%s): %s", u.SubjectCode, u.SessionIndex, u.Kind, u.Reason)
}

// Stats 运行统计
type Stats struct {
	Sessions        int           `json:"sessions"`
	Placed          int           `json:"placed"`
	Backtracks      int           `json:"backtracks"`
	Nodes           int           `json:"nodes"`
	BudgetExhausted bool          `json:"budget_exhausted"`
	Elapsed         time.Duration `json:"elapsed"`
}

// Result 一次运行的结果
type Result struct {
	Outcome         State
	SnapshotVersion int64
	Assignments     []Assignment
	Unplaced        []UnplacedSession
	Warnings        []string
	Relaxed         bool
	Stats           Stats
}

// Engine 排课引擎，一个实例对应一次运行
type Engine struct {
	opts    Options
	checker Checker
	state   State
	logger  *zap.Logger
}

// NewEngine 创建引擎；零值预算取默认值
func NewEngine(opts Options) *Engine {
	def := DefaultOptions()
	if opts.MaxBacktracks <= 0 {
		opts.MaxBacktracks = def.MaxBacktracks
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = def.MaxNodes
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		opts:    opts,
		checker: Checker{AllowSameDay: opts.AllowSameDay},
		state:   StateUnstarted,
		logger:  logger,
	}
}

// State 当前状态
func (e *Engine) State() State { return e.state }

// Run 基于快照求解。快照校验失败或调用方取消 ctx 时返回错误；
// 预算耗尽不算错误，返回尽力而为的结果。
func (e *Engine) Run(ctx context.Context, snap *Snapshot) (*Result, error) {
	if e.state != StateUnstarted {
		return nil, ErrEngineReused
	}
	if err := snap.Validate(); err != nil {
		e.state = StateDone
		return nil, err
	}

	start := time.Now()
	e.state = StatePlacing

	runCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	s := newSearch(snap, e.opts, e.checker)
	if err := s.run(ctx, runCtx); err != nil {
		e.state = StateDone
		return nil, err
	}

	res := s.result()
	res.SnapshotVersion = snap.Version
	res.Relaxed = e.opts.RelaxSessionCount
	res.Stats.Elapsed = time.Since(start)

	for _, o := range snap.CreditOverloads() {
		res.Warnings = append(res.Warnings, o.String())
	}
	if res.Relaxed {
		res.Warnings = append(res.Warnings, "已放宽课时要求：每门课程仅排一次")
	}
	if res.Stats.BudgetExhausted {
		res.Warnings = append(res.Warnings, "搜索预算耗尽，结果为尽力而为")
	}

	e.state = res.Outcome
	e.logger.Info("排课完成",
		zap.Int64("catalog_version", snap.Version),
		zap.String("outcome", string(res.Outcome)),
		zap.Int("sessions", res.Stats.Sessions),
		zap.Int("placed", res.Stats.Placed),
		zap.Int("unplaced", len(res.Unplaced)),
		zap.Int("backtracks", res.Stats.Backtracks),
		zap.Int("nodes", res.Stats.Nodes),
		zap.Duration("elapsed", res.Stats.Elapsed),
	)
	e.state = StateDone
	return res, nil
}

// ── 搜索实现 ──

type candidate struct {
	slot    Slot
	room    *Room
	faculty *Faculty
}

type variable struct {
	subject      *Subject
	kind         SessionKind
	index        int
	cands        []candidate // 同课程同类型的课次共享
	prev         int         // 上一个同课程同类型课次的位置，没有则 -1
	staticReason Reason
}

type intSet map[int]struct{}

type search struct {
	vars    []variable
	acc     *Accumulator
	checker Checker
	opts    Options

	cursor   []int
	chosen   []int
	unplaced []bool
	dropped  []bool
	resumed  []bool
	culprits []intSet
	pending  []intSet
	reasons  []map[Reason]int
	final    []Reason

	origin    int
	stats     Stats
	exhausted bool
}

func newSearch(snap *Snapshot, opts Options, checker Checker) *search {
	rooms := make([]*Room, len(snap.Rooms))
	for i := range snap.Rooms {
		rooms[i] = &snap.Rooms[i]
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Code != rooms[j].Code {
			return rooms[i].Code < rooms[j].Code
		}
		return rooms[i].ID < rooms[j].ID
	})

	faculty := make([]*Faculty, len(snap.Faculty))
	byID := make(map[string]*Faculty, len(snap.Faculty))
	for i := range snap.Faculty {
		faculty[i] = &snap.Faculty[i]
		byID[snap.Faculty[i].ID] = &snap.Faculty[i]
	}
	sort.Slice(faculty, func(i, j int) bool { return faculty[i].ID < faculty[j].ID })

	var rng *rand.Rand
	if opts.Seed != nil {
		rng = rand.New(rand.NewSource(*opts.Seed))
	}

	type plan struct {
		subject *Subject
		kinds   []SessionKind
		cands   map[SessionKind][]candidate
		reasons map[SessionKind]Reason
		score   int
		rank    int
	}

	subjects := make([]*Subject, len(snap.Subjects))
	for i := range snap.Subjects {
		subjects[i] = &snap.Subjects[i]
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i].Code < subjects[j].Code })

	plans := make([]plan, 0, len(subjects))
	for i, sub := range subjects {
		teachers := teachersFor(sub, faculty, byID)
		p := plan{
			subject: sub,
			kinds:   SessionPlan(sub, opts.RelaxSessionCount),
			cands:   make(map[SessionKind][]candidate, 2),
			reasons: make(map[SessionKind]Reason, 2),
			score:   -1,
			rank:    i,
		}
		for _, kind := range p.kinds {
			if _, done := p.cands[kind]; done {
				continue
			}
			cands, reason := buildCandidates(checker, sub, kind, rooms, teachers)
			if rng != nil {
				rng.Shuffle(len(cands), func(a, b int) { cands[a], cands[b] = cands[b], cands[a] })
			}
			p.cands[kind] = cands
			p.reasons[kind] = reason
			if score := constrainedness(checker, sub, kind, rooms, teachers); p.score < 0 || score < p.score {
				p.score = score
			}
		}
		plans = append(plans, p)
	}
	if rng != nil {
		perm := rng.Perm(len(plans))
		for i := range plans {
			plans[i].rank = perm[i]
		}
	}

	sort.SliceStable(plans, func(i, j int) bool {
		a, b := plans[i], plans[j]
		if a.score != b.score {
			return a.score < b.score
		}
		if len(a.kinds) != len(b.kinds) {
			return len(a.kinds) > len(b.kinds)
		}
		return a.rank < b.rank
	})

	// 固定教师的可承担课次上限：可用节次数与周课时上限取小
	remaining := make(map[string]int, len(faculty))
	capReason := make(map[string]Reason, len(faculty))
	for _, f := range faculty {
		slots := 0
		for _, slot := range AllSlots() {
			if f.AvailableAt(slot) {
				slots++
			}
		}
		remaining[f.ID], capReason[f.ID] = slots, ReasonFacultyConflict
		if f.MaxHoursPerWeek > 0 && f.MaxHoursPerWeek < slots {
			remaining[f.ID], capReason[f.ID] = f.MaxHoursPerWeek, ReasonFacultyOverload
		}
	}

	var vars []variable
	for _, p := range plans {
		days := candidateDays(p.cands)
		last := map[SessionKind]int{}
		for idx, kind := range p.kinds {
			prev, ok := last[kind]
			if !ok {
				prev = -1
			}
			last[kind] = len(vars)
			v := variable{
				subject:      p.subject,
				kind:         kind,
				index:        idx,
				cands:        p.cands[kind],
				prev:         prev,
				staticReason: p.reasons[kind],
			}
			// 课次数超过可用天数或固定教师容量的部分，必然排不下
			switch fid := p.subject.FacultyID; {
			case len(v.cands) == 0:
			case !opts.AllowSameDay && idx >= days:
				v.cands, v.staticReason = nil, ReasonSameDay
			case fid != "" && remaining[fid] <= 0:
				v.cands, v.staticReason = nil, capReason[fid]
			case fid != "":
				remaining[fid]--
			}
			vars = append(vars, v)
		}
	}

	n := len(vars)
	s := &search{
		vars:     vars,
		acc:      NewAccumulator(),
		checker:  checker,
		opts:     opts,
		cursor:   make([]int, n),
		chosen:   make([]int, n),
		unplaced: make([]bool, n),
		dropped:  make([]bool, n),
		resumed:  make([]bool, n),
		culprits: make([]intSet, n),
		pending:  make([]intSet, n),
		reasons:  make([]map[Reason]int, n),
		final:    make([]Reason, n),
		origin:   -1,
	}
	for i := 0; i < n; i++ {
		s.reset(i)
	}
	s.stats.Sessions = n
	return s
}

// teachersFor 固定教师优先；否则取同院系教师，院系为空时取全部教师
func teachersFor(sub *Subject, all []*Faculty, byID map[string]*Faculty) []*Faculty {
	if sub.FacultyID != "" {
		if f, ok := byID[sub.FacultyID]; ok {
			return []*Faculty{f}
		}
		return nil
	}
	if sub.Department == "" {
		return all
	}
	var out []*Faculty
	for _, f := range all {
		if f.Department == sub.Department {
			out = append(out, f)
		}
	}
	return out
}

// buildCandidates 预筛与已排结果无关的约束，返回有序候选与全部被拒时的主要原因
func buildCandidates(checker Checker, sub *Subject, kind SessionKind, rooms []*Room, teachers []*Faculty) ([]candidate, Reason) {
	if len(teachers) == 0 {
		return nil, ReasonNoFaculty
	}
	if len(rooms) == 0 {
		return nil, ReasonNoRoom
	}
	counts := make(map[Reason]int)
	var out []candidate
	for _, slot := range AllSlots() {
		for _, room := range rooms {
			for _, f := range teachers {
				err := checker.checkStatic(Placement{Subject: sub, Kind: kind, Slot: slot, Room: room, Faculty: f})
				if err != nil {
					var cv *ConstraintViolation
					if errors.As(err, &cv) {
						counts[cv.Reason]++
					}
					continue
				}
				out = append(out, candidate{slot: slot, room: room, faculty: f})
			}
		}
	}
	return out, dominant(counts)
}

// candidateDays 候选覆盖的天数
func candidateDays(byKind map[SessionKind][]candidate) int {
	var seen [DaysPerWeek]bool
	n := 0
	for _, cands := range byKind {
		for _, c := range cands {
			if !seen[c.slot.Day] {
				seen[c.slot.Day] = true
				n++
			}
		}
	}
	return n
}

// constrainedness 兼容教室数 × 教师可用节次数
func constrainedness(checker Checker, sub *Subject, kind SessionKind, rooms []*Room, teachers []*Faculty) int {
	compatible := 0
	for _, room := range rooms {
		if checkRoom(Placement{Subject: sub, Kind: kind, Room: room}) == nil {
			compatible++
		}
	}
	available := 0
	for _, f := range teachers {
		for _, slot := range AllSlots() {
			if f.AvailableAt(slot) {
				available++
			}
		}
	}
	return compatible * available
}

func (s *search) reset(k int) {
	s.cursor[k] = 0
	s.chosen[k] = -1
	s.unplaced[k] = false
	s.resumed[k] = false
	s.culprits[k] = intSet{}
	s.pending[k] = intSet{}
	s.reasons[k] = map[Reason]int{}
}

func (s *search) run(parent, runCtx context.Context) error {
	n := len(s.vars)
	pos := 0
	for pos < n {
		if err := parent.Err(); err != nil {
			return err
		}
		if s.dropped[pos] {
			pos++
			continue
		}
		if s.tryPlace(runCtx, pos) {
			if pos == s.origin {
				s.origin = -1
			}
			pos++
			continue
		}

		// ── 死路 ──
		if s.origin < 0 {
			s.origin = pos
			s.final[pos] = s.reasonFor(pos)
		}
		conflicts := s.conflictSet(pos)
		if !s.exhausted && len(conflicts) > 0 && s.stats.Backtracks >= s.opts.MaxBacktracks {
			s.exhausted = true
		}

		if s.exhausted || len(conflicts) == 0 {
			switch {
			case s.origin == pos:
				s.final[pos] = s.reasonFor(pos)
				s.markUnplaced(pos)
				s.origin = -1
				pos++
			case s.resumed[pos] || s.exhausted:
				// 回跳目标也走投无路：放弃最初的死路课次，从当前位置重新放置
				s.dropped[s.origin] = true
				s.origin = -1
				s.reset(pos)
			default:
				s.final[pos] = s.reasonFor(pos)
				s.markUnplaced(pos)
				pos++
			}
			continue
		}

		j := maxOf(conflicts)
		s.stats.Backtracks++
		s.backjump(j, pos, conflicts)
		pos = j
	}
	return nil
}

func (s *search) tryPlace(runCtx context.Context, pos int) bool {
	v := &s.vars[pos]
	minSlot := -1
	if v.prev >= 0 && s.chosen[v.prev] >= 0 {
		minSlot = s.vars[v.prev].cands[s.chosen[v.prev]].slot.Index()
	}

	for s.cursor[pos] < len(v.cands) {
		i := s.cursor[pos]
		s.cursor[pos]++
		c := v.cands[i]

		// 同类型课次可互换，只接受比上一课次更晚的单元格
		if c.slot.Index() <= minSlot {
			s.culprits[pos][v.prev] = struct{}{}
			continue
		}

		s.stats.Nodes++
		if !s.exhausted && (s.stats.Nodes > s.opts.MaxNodes || (s.stats.Nodes%256 == 0 && runCtx.Err() != nil)) {
			s.exhausted = true
		}

		p := Placement{Subject: v.subject, Kind: v.kind, Slot: c.slot, Room: c.room, Faculty: c.faculty}
		err := s.checker.Check(s.acc, p)
		if err == nil {
			s.acc.Place(pos, Assignment{
				SubjectID:    v.subject.ID,
				SubjectCode:  v.subject.Code,
				SessionIndex: v.index,
				Kind:         v.kind,
				Slot:         c.slot,
				RoomID:       c.room.ID,
				RoomCode:     c.room.Code,
				FacultyID:    c.faculty.ID,
			})
			s.chosen[pos] = i
			return true
		}

		var cv *ConstraintViolation
		if errors.As(err, &cv) {
			s.reasons[pos][cv.Reason]++
			s.blame(pos, p, cv.Reason)
		}
	}
	return false
}

// blame 记录导致候选被拒的已排课次
func (s *search) blame(pos int, p Placement, reason Reason) {
	add := func(owner int) {
		if owner >= 0 && owner < pos {
			s.culprits[pos][owner] = struct{}{}
		}
	}
	switch reason {
	case ReasonFacultyConflict:
		if owner, ok := s.acc.FacultyAt(p.Faculty.ID, p.Slot); ok {
			add(owner)
		}
	case ReasonRoomConflict:
		if owner, ok := s.acc.RoomAt(p.Room.ID, p.Slot); ok {
			add(owner)
		}
	case ReasonSameDay:
		for _, owner := range s.acc.Owners(func(a Assignment) bool {
			return a.SubjectID == p.Subject.ID && a.Slot.Day == p.Slot.Day
		}) {
			add(owner)
		}
	case ReasonFacultyOverload:
		for _, owner := range s.acc.Owners(func(a Assignment) bool {
			return a.FacultyID == p.Faculty.ID
		}) {
			add(owner)
		}
	}
}

func (s *search) conflictSet(pos int) intSet {
	out := intSet{}
	for k := range s.culprits[pos] {
		if k < pos && s.chosen[k] >= 0 {
			out[k] = struct{}{}
		}
	}
	for k := range s.pending[pos] {
		if k < pos && s.chosen[k] >= 0 {
			out[k] = struct{}{}
		}
	}
	return out
}

// backjump 撤销 j 及之后的落位，冲突集并入 j，j 之后的课次全部重置
func (s *search) backjump(j, pos int, conflicts intSet) {
	for k := range conflicts {
		if k != j {
			s.pending[j][k] = struct{}{}
		}
	}
	for s.acc.Len() > 0 && s.acc.TopOwner() >= j {
		s.chosen[s.acc.Undo()] = -1
	}
	for k := j + 1; k <= pos; k++ {
		s.reset(k)
	}
	s.resumed[j] = true
}

func (s *search) markUnplaced(pos int) {
	s.unplaced[pos] = true
	s.chosen[pos] = -1
}

func (s *search) reasonFor(pos int) Reason {
	if r := dominant(s.reasons[pos]); r != "" {
		return r
	}
	v := &s.vars[pos]
	if len(v.cands) == 0 {
		return v.staticReason
	}
	return ReasonSameDay
}

func (s *search) result() *Result {
	res := &Result{Assignments: s.acc.Assignments()}
	sortAssignments(res.Assignments)

	for pos := range s.vars {
		if !s.unplaced[pos] && !s.dropped[pos] {
			continue
		}
		v := &s.vars[pos]
		reason := s.final[pos]
		if reason == "" {
			reason = s.reasonFor(pos)
		}
		res.Unplaced = append(res.Unplaced, UnplacedSession{
			SubjectID:    v.subject.ID,
			SubjectCode:  v.subject.Code,
			SessionIndex: v.index,
			Kind:         v.kind,
			Reason:       reason,
		})
	}
	sort.Slice(res.Unplaced, func(i, j int) bool {
		a, b := res.Unplaced[i], res.Unplaced[j]
		if a.SubjectCode != b.SubjectCode {
			return a.SubjectCode < b.SubjectCode
		}
		return a.SessionIndex < b.SessionIndex
	})

	res.Outcome = StateComplete
	if len(res.Unplaced) > 0 {
		res.Outcome = StatePartial
	}
	res.Stats = s.stats
	res.Stats.Placed = len(res.Assignments)
	res.Stats.BudgetExhausted = s.exhausted
	return res
}

// sortAssignments 按 (星期, 节次, 教室编号, 课程编号, 课次) 排序
func sortAssignments(as []Assignment) {
	sort.Slice(as, func(i, j int) bool {
		a, b := as[i], as[j]
		if a.Slot.Day != b.Slot.Day {
			return a.Slot.Day < b.Slot.Day
		}
		if a.Slot.Period != b.Slot.Period {
			return a.Slot.Period < b.Slot.Period
		}
		if a.RoomCode != b.RoomCode {
			return a.RoomCode < b.RoomCode
		}
		if a.SubjectCode != b.SubjectCode {
			return a.SubjectCode < b.SubjectCode
		}
		return a.SessionIndex < b.SessionIndex
	})
}

// dominant 出现次数最多的原因，并列时取检查顺序靠前者
func dominant(counts map[Reason]int) Reason {
	var best Reason
	bestN := 0
	for r, n := range counts {
		if n > bestN || (n == bestN && n > 0 && reasonOrder[r] < reasonOrder[best]) {
			best, bestN = r, n
		}
	}
	return best
}

func maxOf(set intSet) int {
	m := -1
	for k := range set {
		if k > m {
			m = k
		}
	}
	return m
}
