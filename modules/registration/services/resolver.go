package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/campsite-dev/campseed/modules/registration/domain"
	"github.com/campsite-dev/campseed/pkg/ingest"
	"github.com/campsite-dev/campseed/pkg/logging"
)

// CampJoin selects how a registration's camp reference is matched.
type CampJoin string

const (
	// CampJoinOrdinal treats the reference as a 1-based position in the camp list.
	CampJoinOrdinal CampJoin = "ordinal"
	// CampJoinID matches the reference against camp ids.
	CampJoinID CampJoin = "id"
)

// CampMissPolicy decides what happens to a row whose camp cannot be resolved.
type CampMissPolicy string

const (
	// CampMissNull keeps the row with camp_id and amount set to null.
	CampMissNull CampMissPolicy = "null"
	// CampMissSkip drops the row and records SkipUnresolvableCamp.
	CampMissSkip CampMissPolicy = "skip"
)

func ParseCampJoin(s string) (CampJoin, error) {
	switch j := CampJoin(strings.ToLower(strings.TrimSpace(s))); j {
	case "":
		return CampJoinOrdinal, nil
	case CampJoinOrdinal, CampJoinID:
		return j, nil
	}
	return "", errors.Wrapf(ErrInvalidOption, "camp join %q (expected ordinal|id)", s)
}

func ParseCampMissPolicy(s string) (CampMissPolicy, error) {
	switch p := CampMissPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return CampMissNull, nil
	case CampMissNull, CampMissSkip:
		return p, nil
	}
	return "", errors.Wrapf(ErrInvalidOption, "camp miss policy %q (expected null|skip)", s)
}

type ResolverOptions struct {
	CampJoin CampJoin
	CampMiss CampMissPolicy
	Profile  ingest.Profile

	Logger *logrus.Entry

	// Now stamps synthesized users when the registration row has no usable
	// creation date.
	Now func() time.Time
}

func (o *ResolverOptions) setDefaults() {
	if o.CampJoin == "" {
		o.CampJoin = CampJoinOrdinal
	}
	if o.CampMiss == "" {
		o.CampMiss = CampMissNull
	}
	if o.Profile == nil {
		o.Profile = ingest.DefaultProfile()
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
}

func (o ResolverOptions) validate() error {
	if _, err := ParseCampJoin(string(o.CampJoin)); err != nil {
		return err
	}
	if _, err := ParseCampMissPolicy(string(o.CampMiss)); err != nil {
		return err
	}
	return nil
}

// ResolutionContext is the state of one pipeline run: the unified user index
// (reference users plus users synthesized so far), camps and districts.
// Resolve mutates it, so repeated rows within a run converge on the same
// user. Use a fresh context per run.
type ResolutionContext struct {
	users       []*domain.User
	byLegacy    map[string]*domain.User
	byEmail     map[string]*domain.User
	synthesized []*domain.User
	cleared     []domain.ID

	camps     []domain.Camp
	campsByID map[string]int
	districts map[string]domain.ID
}

// NewResolutionContext indexes the reference fixtures. The users slice is
// copied; the caller's records are never modified.
func NewResolutionContext(users []domain.User, camps []domain.Camp, districts []domain.District) *ResolutionContext {
	rc := &ResolutionContext{
		users:     make([]*domain.User, 0, len(users)),
		byLegacy:  make(map[string]*domain.User, len(users)),
		byEmail:   make(map[string]*domain.User, len(users)),
		camps:     camps,
		campsByID: make(map[string]int, len(camps)),
		districts: make(map[string]domain.ID, len(districts)),
	}
	for i := range users {
		u := users[i]
		if u.LegacyID != nil {
			id := *u.LegacyID
			u.LegacyID = &id
		}
		rc.index(&u)
	}
	for i, c := range camps {
		if _, ok := rc.campsByID[c.ID.String()]; !ok {
			rc.campsByID[c.ID.String()] = i
		}
	}
	for _, d := range districts {
		if _, ok := rc.districts[d.Name]; !ok {
			rc.districts[d.Name] = d.ID
		}
	}
	return rc
}

func (rc *ResolutionContext) index(u *domain.User) {
	rc.users = append(rc.users, u)
	if u.LegacyID != nil && !u.LegacyID.IsZero() {
		if _, ok := rc.byLegacy[u.LegacyID.String()]; !ok {
			rc.byLegacy[u.LegacyID.String()] = u
		}
	}
	if k := ingest.DedupKey(u.Email); k != "" {
		if _, ok := rc.byEmail[k]; !ok {
			rc.byEmail[k] = u
		}
	}
}

// lookup prefers the legacy bridge and falls back to the normalized email.
func (rc *ResolutionContext) lookup(legacy, email string) (*domain.User, bool) {
	if legacy != "" {
		if u, ok := rc.byLegacy[legacy]; ok {
			return u, true
		}
	}
	if k := ingest.DedupKey(email); k != "" {
		if u, ok := rc.byEmail[k]; ok {
			return u, false
		}
	}
	return nil, false
}

// clearLegacy consumes the bridge on the user record. The in-run index keeps
// the entry, so later rows with the same legacy id converge on this user.
func (rc *ResolutionContext) clearLegacy(u *domain.User) {
	if u.LegacyID == nil {
		return
	}
	u.LegacyID = nil
	rc.cleared = append(rc.cleared, u.ID)
}

func (rc *ResolutionContext) synthesize(u domain.User) *domain.User {
	p := &u
	rc.index(p)
	rc.synthesized = append(rc.synthesized, p)
	return p
}

func (rc *ResolutionContext) camp(ref string, join CampJoin) (domain.Camp, bool) {
	if ref == "" {
		return domain.Camp{}, false
	}
	if join == CampJoinID {
		i, ok := rc.campsByID[ref]
		if !ok {
			return domain.Camp{}, false
		}
		return rc.camps[i], true
	}
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > len(rc.camps) {
		return domain.Camp{}, false
	}
	return rc.camps[n-1], true
}

// Users returns the reference users followed by the synthesized ones, with
// consumed legacy ids cleared.
func (rc *ResolutionContext) Users() []domain.User {
	out := make([]domain.User, len(rc.users))
	for i, u := range rc.users {
		out[i] = *u
	}
	return out
}

// Result is the output of one Resolve call.
type Result struct {
	Campites []domain.Campite
	// NewUsers are the users synthesized while resolving these rows.
	NewUsers []domain.User
	Skips    []Skip
	// ClearedLegacyIDs lists the ids of users whose legacy bridge was used.
	ClearedLegacyIDs []domain.ID
}

type Resolver struct {
	opts ResolverOptions
	log  *logrus.Entry
}

func NewResolver(opts ResolverOptions) (*Resolver, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Resolver{opts: opts, log: opts.Logger}, nil
}

var registrationFields = []ingest.Field{
	ingest.FieldUserRef,
	ingest.FieldEmail,
	ingest.FieldFirstName,
	ingest.FieldLastName,
	ingest.FieldPhone,
	ingest.FieldAgeGroup,
	ingest.FieldGender,
	ingest.FieldCampRef,
	ingest.FieldDistrict,
	ingest.FieldPaymentRef,
	ingest.FieldRegType,
	ingest.FieldAllocatedItems,
	ingest.FieldCheckinAt,
	ingest.FieldCreatedAt,
}

// Resolve turns registration rows into campites, in row order. A row that
// cannot be tied to a user (no known user reference and no email) is skipped
// and reported; so is a row without a camp when CampMiss is CampMissSkip.
// Rows never abort the run. The only error is a registrations table with
// neither a user reference nor an email column.
func (r *Resolver) Resolve(rc *ResolutionContext, t *ingest.Table) (*Result, error) {
	cols := r.opts.Profile.Lookup(t.Header, registrationFields...)
	if !cols.Has(ingest.FieldUserRef) && !cols.Has(ingest.FieldEmail) {
		_, err := r.opts.Profile.Resolve(t.Header, ingest.FieldEmail)
		return nil, errors.Wrap(err, "registrations need a user reference or email column")
	}

	res := &Result{Campites: make([]domain.Campite, 0, len(t.Rows))}
	synthesizedBefore := len(rc.synthesized)
	clearedBefore := len(rc.cleared)

	for _, row := range t.Rows {
		c, reason, ok := r.resolveRow(rc, cols, row)
		if !ok {
			r.log.WithFields(logrus.Fields{"line": row.Line, "reason": reason}).Warn("registration skipped")
			res.Skips = append(res.Skips, Skip{Line: row.Line, Row: row, Reason: reason})
			continue
		}
		res.Campites = append(res.Campites, c)
	}

	for _, u := range rc.synthesized[synthesizedBefore:] {
		res.NewUsers = append(res.NewUsers, *u)
	}
	res.ClearedLegacyIDs = append(res.ClearedLegacyIDs, rc.cleared[clearedBefore:]...)

	r.log.WithFields(logrus.Fields{
		"campites":  len(res.Campites),
		"new_users": len(res.NewUsers),
		"skipped":   len(res.Skips),
	}).Info("registrations resolved")
	return res, nil
}

func (r *Resolver) resolveRow(rc *ResolutionContext, cols ingest.Columns, row ingest.Row) (domain.Campite, SkipReason, bool) {
	email := cols.Value(row, ingest.FieldEmail)
	user, viaLegacy := rc.lookup(cols.Value(row, ingest.FieldUserRef), email)
	if user == nil && email == "" {
		return domain.Campite{}, SkipUnresolvableUser, false
	}

	camp, campOK := rc.camp(cols.Value(row, ingest.FieldCampRef), r.opts.CampJoin)
	if !campOK && r.opts.CampMiss == CampMissSkip {
		return domain.Campite{}, SkipUnresolvableCamp, false
	}

	created, createdOK := r.parseOptionalDate(cols, row, ingest.FieldCreatedAt)

	switch {
	case user == nil:
		stamp := created
		if !createdOK {
			stamp = r.opts.Now().UTC()
		}
		user = rc.synthesize(domain.User{
			ID:        UserID(email),
			FirstName: cols.Value(row, ingest.FieldFirstName),
			LastName:  cols.Value(row, ingest.FieldLastName),
			Email:     email,
			Phone:     optionalString(cols.Value(row, ingest.FieldPhone)),
			Role:      domain.RoleUser,
			CreatedAt: stamp,
			UpdatedAt: stamp,
		})
		r.log.WithFields(logrus.Fields{"line": row.Line, "user_id": user.ID}).Debug("user synthesized")
	case viaLegacy:
		rc.clearLegacy(user)
	}

	c := domain.Campite{
		ID:             CampiteID(user.ID, row.Line),
		FirstName:      firstNonEmpty(cols.Value(row, ingest.FieldFirstName), user.FirstName),
		LastName:       firstNonEmpty(cols.Value(row, ingest.FieldLastName), user.LastName),
		Email:          firstNonEmpty(email, user.Email),
		Phone:          cols.Value(row, ingest.FieldPhone),
		AgeGroup:       cols.Value(row, ingest.FieldAgeGroup),
		Gender:         cols.Value(row, ingest.FieldGender),
		UserID:         user.ID,
		PaymentRef:     optionalString(cols.Value(row, ingest.FieldPaymentRef)),
		Type:           classify(cols.Value(row, ingest.FieldRegType)),
		AllocatedItems: cols.Value(row, ingest.FieldAllocatedItems),
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
	if c.Phone == "" && user.Phone != nil {
		c.Phone = *user.Phone
	}
	if createdOK {
		c.CreatedAt, c.UpdatedAt = created, created
	}
	if campOK {
		id := camp.ID
		c.CampID = &id
		if c.Type != domain.CampitePremium && camp.Fee.Valid {
			if !camp.Fee.Decimal.IsInteger() {
				r.log.WithFields(logrus.Fields{"line": row.Line, "camp_id": camp.ID, "fee": camp.Fee.Decimal.String()}).
					Warn("fractional camp fee truncated to whole units")
			}
			amount := camp.Fee.Decimal.IntPart()
			c.Amount = &amount
		}
	}
	if col, ok := cols[ingest.FieldDistrict]; ok {
		if id, ok := rc.districts[row.Get(col)]; ok {
			c.DistrictID = &id
		}
	}
	if checkin, ok := r.parseOptionalDate(cols, row, ingest.FieldCheckinAt); ok {
		c.CheckinAt = &checkin
	}
	return c, "", true
}

func (r *Resolver) parseOptionalDate(cols ingest.Columns, row ingest.Row, field ingest.Field) (time.Time, bool) {
	v := cols.Value(row, field)
	if v == "" {
		return time.Time{}, false
	}
	ts, err := ingest.ParseDate(v)
	if err != nil {
		r.log.WithFields(logrus.Fields{"line": row.Line, "field": field, "value": v}).Debug("ignoring unparsable date")
		return time.Time{}, false
	}
	return ts, true
}

func classify(regType string) domain.CampiteType {
	if strings.EqualFold(strings.TrimSpace(regType), string(domain.CampitePremium)) {
		return domain.CampitePremium
	}
	return domain.CampiteRegular
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
