package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"callsync/internal/audit"
	"callsync/internal/closecrm"
	"callsync/internal/config"
	"callsync/internal/directory"
	"callsync/internal/taskrouter"
)

// fakeCRM and fakeTR emulate the two remote systems with just enough state
// to observe convergence and write counts.

type fakeCRM struct {
	memberships []closecrm.Membership
	users       map[string]closecrm.User
	avail       map[string]closecrm.Availability
	groups      map[string][]string
	phones      map[string]*closecrm.PhoneNumber

	participantWrites int
	phoneLookupErr    error
	availErr          error
}

func (f *fakeCRM) Memberships(ctx context.Context, orgID string) ([]closecrm.Membership, error) {
	return f.memberships, nil
}

func (f *fakeCRM) User(ctx context.Context, userID string) (closecrm.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return closecrm.User{}, closecrm.ErrNotFound
	}
	return u, nil
}

func (f *fakeCRM) UserAvailability(ctx context.Context, orgID string) (map[string]closecrm.Availability, error) {
	if f.availErr != nil {
		return nil, f.availErr
	}
	return f.avail, nil
}

func (f *fakeCRM) GroupMembers(ctx context.Context, groupID string) ([]string, error) {
	members, ok := f.groups[groupID]
	if !ok {
		return nil, fmt.Errorf("group %s gone", groupID)
	}
	return members, nil
}

func (f *fakeCRM) PhoneNumberByNumber(ctx context.Context, number string) (closecrm.PhoneNumber, error) {
	if f.phoneLookupErr != nil {
		return closecrm.PhoneNumber{}, f.phoneLookupErr
	}
	p, ok := f.phones[number]
	if !ok {
		return closecrm.PhoneNumber{}, closecrm.ErrNotFound
	}
	return *p, nil
}

func (f *fakeCRM) UpdatePhoneNumberParticipants(ctx context.Context, id string, participants []string) error {
	for _, p := range f.phones {
		if p.ID == id {
			p.Participants = append([]string(nil), participants...)
			f.participantWrites++
			return nil
		}
	}
	return closecrm.ErrNotFound
}

type fakeTR struct {
	workers   map[string]*taskrouter.Worker
	sidToName map[string]string
	nextSID   int

	ops            []string
	activityWrites int
	attrWrites     int
}

func newFakeTR() *fakeTR {
	return &fakeTR{
		workers: map[string]*taskrouter.Worker{},
		sidToName: map[string]string{
			"WA_off":  "offline",
			"WA_on":   "online",
			"WA_call": "on_call",
		},
	}
}

func (f *fakeTR) activityMap() taskrouter.ActivityMap {
	m := taskrouter.ActivityMap{}
	for sid, name := range f.sidToName {
		m[name] = sid
	}
	return m
}

func (f *fakeTR) addWorker(userID, activityName string, groups []string) *taskrouter.Worker {
	f.nextSID++
	w := &taskrouter.Worker{
		SID:          fmt.Sprintf("WK%d", f.nextSID),
		FriendlyName: userID,
		ActivityName: activityName,
		Attributes:   taskrouter.BuildAttributes(userID, groups),
	}
	f.workers[w.SID] = w
	return w
}

func (f *fakeTR) ListActivities(ctx context.Context) (taskrouter.ActivityMap, error) {
	return f.activityMap(), nil
}

func (f *fakeTR) ListWorkers(ctx context.Context) ([]taskrouter.Worker, error) {
	out := make([]taskrouter.Worker, 0, len(f.workers))
	for _, w := range f.workers {
		out = append(out, *w)
	}
	return out, nil
}

func (f *fakeTR) CreateWorker(ctx context.Context, name, attrs string) (taskrouter.Worker, error) {
	f.nextSID++
	w := &taskrouter.Worker{
		SID:          fmt.Sprintf("WK%d", f.nextSID),
		FriendlyName: name,
		ActivityName: "offline",
		Attributes:   attrs,
	}
	f.workers[w.SID] = w
	f.ops = append(f.ops, "create:"+w.SID)
	return *w, nil
}

func (f *fakeTR) UpdateWorkerActivity(ctx context.Context, sid, activitySID string) error {
	w, ok := f.workers[sid]
	if !ok {
		return taskrouter.ErrNotFound
	}
	w.ActivityName = f.sidToName[activitySID]
	f.activityWrites++
	f.ops = append(f.ops, "activity:"+sid+":"+w.ActivityName)
	return nil
}

func (f *fakeTR) UpdateWorkerAttributes(ctx context.Context, sid, attrs string) error {
	w, ok := f.workers[sid]
	if !ok {
		return taskrouter.ErrNotFound
	}
	w.Attributes = attrs
	f.attrWrites++
	f.ops = append(f.ops, "attrs:"+sid)
	return nil
}

func (f *fakeTR) DeleteWorker(ctx context.Context, sid string) error {
	if _, ok := f.workers[sid]; !ok {
		return taskrouter.ErrNotFound
	}
	delete(f.workers, sid)
	f.ops = append(f.ops, "delete:"+sid)
	return nil
}

func (f *fakeTR) CompleteTask(ctx context.Context, sid string) error {
	f.ops = append(f.ops, "complete:"+sid)
	return nil
}

var testQueues = []config.Queue{
	{GroupID: "grp_a", TwilioNumber: "+15550001", CloseNumber: "+15551001"},
}

func newTestSyncer(t *testing.T, crm *fakeCRM, tr *fakeTR) *Syncer {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	fetcher := directory.NewFetcher(crm, tr, "orga_1", []string{"grp_a"}, log)
	return New(Deps{
		CRM:        crm,
		TaskRouter: tr,
		Fetcher:    fetcher,
		Activities: tr.activityMap(),
		Queues:     testQueues,
		OrgID:      "orga_1",
		Audit:      audit.NewService(audit.NewMemoryRepo(), log),
		Log:        log,
	})
}

func TestFullSync_ConvergesThenIdempotent(t *testing.T) {
	crm := &fakeCRM{
		avail: map[string]closecrm.Availability{
			"user_a": {NativeOnline: true},
			"user_b": {NativeOnline: true, ActiveCalls: 1},
		},
		groups: map[string][]string{"grp_a": {"user_a", "user_b"}},
		phones: map[string]*closecrm.PhoneNumber{
			"+15551001": {ID: "phone_1", Number: "+15551001", Participants: []string{"user_a", "user_b"}},
		},
	}
	tr := newFakeTR()
	wa := tr.addWorker("user_a", "offline", nil)
	wb := tr.addWorker("user_b", "online", []string{"grp_a"})

	s := newTestSyncer(t, crm, tr)

	first := s.FullSync(context.Background())
	if !first.Clean() {
		t.Fatalf("first pass not clean: %+v", first)
	}
	if first.TotalWrites() == 0 {
		t.Fatalf("expected writes on first pass")
	}

	// Convergence: worker activity equals the canonical status.
	if tr.workers[wa.SID].ActivityName != "online" {
		t.Fatalf("user_a worker should be online, got %s", tr.workers[wa.SID].ActivityName)
	}
	if tr.workers[wb.SID].ActivityName != "on_call" {
		t.Fatalf("user_b worker should be on_call, got %s", tr.workers[wb.SID].ActivityName)
	}
	// user_a was missing its group attribute.
	if got := taskrouter.GroupIDs(tr.workers[wa.SID].Attributes); len(got) != 1 || got[0] != "grp_a" {
		t.Fatalf("user_a groups = %v", got)
	}
	// Group number rings only the idle online member.
	if ps := crm.phones["+15551001"].Participants; len(ps) != 1 || ps[0] != "user_a" {
		t.Fatalf("expected only user_a on group number, got %v", ps)
	}

	second := s.FullSync(context.Background())
	if second.TotalWrites() != 0 {
		t.Fatalf("second pass must be a no-op, issued %d writes: %+v", second.TotalWrites(), second)
	}
}

func TestEnsureWorkers_NeverDuplicates(t *testing.T) {
	crm := &fakeCRM{
		memberships: []closecrm.Membership{
			{UserID: "user_a", UserFullName: "Ada Archer"},
			{UserID: "user_b", UserFullName: "Ben Brook"},
		},
	}
	tr := newFakeTR()
	s := newTestSyncer(t, crm, tr)

	for i := 0; i < 3; i++ {
		if _, err := s.EnsureWorkers(context.Background()); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if len(tr.workers) != 2 {
		t.Fatalf("expected exactly 2 workers after repeated runs, got %d", len(tr.workers))
	}
}

func TestDeactivateUser_OfflineBeforeDelete(t *testing.T) {
	crm := &fakeCRM{}
	tr := newFakeTR()
	w := tr.addWorker("user_a", "on_call", []string{"grp_a"})
	s := newTestSyncer(t, crm, tr)

	if err := s.DeactivateUser(context.Background(), "user_a"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	wantOffline := "activity:" + w.SID + ":offline"
	wantDelete := "delete:" + w.SID
	offlineIdx, deleteIdx := -1, -1
	for i, op := range tr.ops {
		switch op {
		case wantOffline:
			offlineIdx = i
		case wantDelete:
			deleteIdx = i
		}
	}
	if offlineIdx == -1 || deleteIdx == -1 || offlineIdx > deleteIdx {
		t.Fatalf("expected offline update before delete, ops: %v", tr.ops)
	}
}

func TestDeactivateUser_MissingWorkerIsNoop(t *testing.T) {
	s := newTestSyncer(t, &fakeCRM{}, newFakeTR())
	if err := s.DeactivateUser(context.Background(), "user_ghost"); err != nil {
		t.Fatalf("missing worker must be a no-op, got %v", err)
	}
}

func TestSyncGroupAttributes_RefusesIncompleteSnapshot(t *testing.T) {
	crm := &fakeCRM{groups: map[string][]string{}} // grp_a fetch fails
	tr := newFakeTR()
	tr.addWorker("user_a", "online", []string{"grp_a"})
	s := newTestSyncer(t, crm, tr)

	snap := directory.NewFetcher(crm, tr, "orga_1", []string{"grp_a"}, slog.New(slog.NewTextHandler(io.Discard, nil))).Fetch(context.Background())
	updates, errs := s.SyncGroupAttributes(context.Background(), snap)
	if updates != 0 || len(errs) == 0 {
		t.Fatalf("expected refusal, got updates=%d errs=%v", updates, errs)
	}
	if got := taskrouter.GroupIDs(tr.workers["WK1"].Attributes); len(got) != 1 {
		t.Fatalf("worker must keep its groups on a failed fetch, got %v", got)
	}
}

func TestFullSync_AvailabilityOutageIssuesNoWrites(t *testing.T) {
	crm := &fakeCRM{
		availErr: fmt.Errorf("availability api down"),
		groups:   map[string][]string{"grp_a": {"user_a"}},
		phones: map[string]*closecrm.PhoneNumber{
			"+15551001": {ID: "phone_1", Number: "+15551001", Participants: []string{"user_a"}},
		},
	}
	tr := newFakeTR()
	wa := tr.addWorker("user_a", "online", []string{"grp_a"})
	s := newTestSyncer(t, crm, tr)

	report := s.FullSync(context.Background())

	if len(report.FetchErrors) == 0 || len(report.Errors) == 0 {
		t.Fatalf("expected the outage recorded on the report: %+v", report)
	}
	// A failed availability read must never look like everyone-offline.
	if tr.workers[wa.SID].ActivityName != "online" {
		t.Fatalf("worker must keep its activity, got %s", tr.workers[wa.SID].ActivityName)
	}
	if tr.activityWrites != 0 {
		t.Fatalf("expected no activity writes, got %d", tr.activityWrites)
	}
	if ps := crm.phones["+15551001"].Participants; len(ps) != 1 || ps[0] != "user_a" {
		t.Fatalf("group number must keep its participants, got %v", ps)
	}
	if crm.participantWrites != 0 {
		t.Fatalf("expected no participant writes, got %d", crm.participantWrites)
	}
}

func TestFullSync_IsolatesFailingReconciler(t *testing.T) {
	crm := &fakeCRM{
		avail:          map[string]closecrm.Availability{"user_a": {NativeOnline: true}},
		groups:         map[string][]string{"grp_a": {"user_a"}},
		phones:         map[string]*closecrm.PhoneNumber{},
		phoneLookupErr: fmt.Errorf("phone api down"),
	}
	tr := newFakeTR()
	wa := tr.addWorker("user_a", "offline", []string{"grp_a"})
	s := newTestSyncer(t, crm, tr)

	report := s.FullSync(context.Background())
	if len(report.Errors) == 0 {
		t.Fatalf("expected participant errors in report")
	}
	// Status reconciler still converged despite the participant failure.
	if tr.workers[wa.SID].ActivityName != "online" {
		t.Fatalf("status reconciler must run despite participant failure")
	}
	if report.StatusUpdates != 1 {
		t.Fatalf("expected 1 status update, got %d", report.StatusUpdates)
	}
}
