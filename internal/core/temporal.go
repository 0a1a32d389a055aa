package core

import (
	"context"
	"slices"

	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/logger"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/temporal"
	"github.com/gridforge/gridforge/internal/validation"
)

// LoadTemporal reads periods.tab and timepoints.tab into the PERIODS and TMPS
// sets and their params.
func LoadTemporal(m *model.Model, dir string) error {
	pt, err := inputs.ReadFile(dir, PeriodsFile)
	if err != nil {
		return err
	}

	periodSet := model.NewSet[int](SetPeriods)
	start := model.NewParam[model.Int](ParamPeriodStartYear)
	end := model.NewParam[model.Int](ParamPeriodEndYear)
	discount := model.NewParamWithDefault[model.Int](ParamDiscountFactor, 1)
	years := model.NewParamWithDefault[model.Int](ParamYearsRepresented, 1)

	var periods []temporal.Period
	for _, r := range pt.Records() {
		p := temporal.Period{DiscountFactor: 1, YearsRepresented: 1}
		if p.ID, err = r.Int("period"); err != nil {
			return err
		}
		if p.StartYear, err = r.Int("start_year"); err != nil {
			return err
		}
		if p.EndYear, err = r.Int("end_year"); err != nil {
			return err
		}
		if v, ok, err := r.OptFloat("discount_factor"); err != nil {
			return err
		} else if ok {
			p.DiscountFactor = v
		}
		if v, ok, err := r.OptFloat("number_years_represented"); err != nil {
			return err
		} else if ok {
			p.YearsRepresented = v
		}
		periods = append(periods, p)
	}
	if err := temporal.ValidatePeriods(periods); err != nil {
		return errors.New(err).Component("core").Context("file", PeriodsFile).Build()
	}
	for _, p := range periods {
		periodSet.Add(p.ID)
		key := model.Int(p.ID)
		start.Set(key, float64(p.StartYear))
		end.Set(key, float64(p.EndYear))
		discount.Set(key, p.DiscountFactor)
		years.Set(key, p.YearsRepresented)
	}

	tt, err := inputs.ReadFile(dir, TimepointsFile)
	if err != nil {
		return err
	}
	tmpSet := model.NewSet[int](SetTimepoints)
	tmpPeriod := model.NewParam[model.Int](ParamTimepointPeriod)
	weight := model.NewParamWithDefault[model.Int](ParamTimepointWeight, 1)
	for _, r := range tt.Records() {
		tmp, err := r.Int("timepoint")
		if err != nil {
			return err
		}
		prd, err := r.Int("period")
		if err != nil {
			return err
		}
		if !periodSet.Contains(prd) {
			return errors.Newf("%s line %d: timepoint %d is in unknown period %d", TimepointsFile, r.Line(), tmp, prd).
				Component("core").
				Category(errors.CategoryConfiguration).
				Build()
		}
		tmpSet.Add(tmp)
		tmpPeriod.Set(model.Int(tmp), float64(prd))
		if w, ok, err := r.OptFloat("weight"); err != nil {
			return err
		} else if ok {
			weight.Set(model.Int(tmp), w)
		}
	}

	if err := model.AddSet(m, periodSet); err != nil {
		return err
	}
	if err := model.AddSet(m, tmpSet); err != nil {
		return err
	}
	for _, p := range []*model.Param[model.Int]{start, end, discount, years, tmpPeriod, weight} {
		if err := model.AddParam(m, p); err != nil {
			return err
		}
	}

	GetLogger().Debug("temporal structure loaded",
		logger.Int("periods", periodSet.Len()),
		logger.Int("timepoints", tmpSet.Len()))
	return nil
}

// Periods rebuilds the period list from the model, in PERIODS order.
func Periods(m *model.Model) ([]temporal.Period, error) {
	set, err := model.SetOf[int](m, SetPeriods)
	if err != nil {
		return nil, err
	}
	start := model.MustParam[model.Int](m, ParamPeriodStartYear)
	end := model.MustParam[model.Int](m, ParamPeriodEndYear)
	discount := model.MustParam[model.Int](m, ParamDiscountFactor)
	years := model.MustParam[model.Int](m, ParamYearsRepresented)

	out := make([]temporal.Period, 0, set.Len())
	for _, id := range set.Items() {
		key := model.Int(id)
		out = append(out, temporal.Period{
			ID:               id,
			StartYear:        int(start.Get(key)),
			EndYear:          int(end.Get(key)),
			DiscountFactor:   discount.Get(key),
			YearsRepresented: years.Get(key),
		})
	}
	return out, nil
}

// Timepoints rebuilds the timepoint list from the model, in TMPS order.
func Timepoints(m *model.Model) ([]temporal.Timepoint, error) {
	set, err := model.SetOf[int](m, SetTimepoints)
	if err != nil {
		return nil, err
	}
	prd := model.MustParam[model.Int](m, ParamTimepointPeriod)
	weight := model.MustParam[model.Int](m, ParamTimepointWeight)

	out := make([]temporal.Timepoint, 0, set.Len())
	for _, id := range set.Items() {
		out = append(out, temporal.Timepoint{
			ID:     id,
			Period: int(prd.Get(model.Int(id))),
			Weight: weight.Get(model.Int(id)),
		})
	}
	return out, nil
}

// PeriodOf returns the period a timepoint belongs to.
func PeriodOf(m *model.Model, tmp int) int {
	return int(model.MustParam[model.Int](m, ParamTimepointPeriod).Get(model.Int(tmp)))
}

// TimepointsInPeriod returns the timepoints of period prd in TMPS order.
func TimepointsInPeriod(m *model.Model, prd int) []int {
	set := model.MustSet[int](m, SetTimepoints)
	return set.Filter(func(tmp int) bool { return PeriodOf(m, tmp) == prd })
}

// OperationalTimepoints expands (entity, period) pairs into (entity, timepoint)
// pairs, keeping the pair order.
func OperationalTimepoints(m *model.Model, pairs []model.EntityPeriod) []model.EntityTimepoint {
	byPeriod := make(map[int][]int)
	var out []model.EntityTimepoint
	for _, p := range pairs {
		tmps, ok := byPeriod[p.Period]
		if !ok {
			tmps = TimepointsInPeriod(m, p.Period)
			byPeriod[p.Period] = tmps
		}
		for _, tmp := range tmps {
			out = append(out, model.EntityTimepoint{Entity: p.Entity, Timepoint: tmp})
		}
	}
	return out
}

// WriteTemporalInputs writes periods.tab and timepoints.tab for the scenario.
func WriteTemporalInputs(ctx context.Context, q subtype.Query) error {
	db := q.DB.WithContext(ctx)

	var periods []entities.InputsTemporalPeriod
	if err := db.Where("temporal_scenario_id = ?", q.Scenario.IDs.Temporal).
		Order("period").Find(&periods).Error; err != nil {
		return errors.New(err).Component("core").Category(errors.CategoryDatabase).
			Context("table", "inputs_temporal_periods").Build()
	}
	pt := inputs.NewTable(PeriodsFile, "period", "start_year", "end_year", "discount_factor", "number_years_represented")
	for _, p := range periods {
		if err := pt.Append(p.Period, p.StartYear, p.EndYear, p.DiscountFactor, p.YearsRepresented); err != nil {
			return err
		}
	}

	var tmps []entities.InputsTemporalTimepoint
	if err := db.Where("temporal_scenario_id = ?", q.Scenario.IDs.Temporal).
		Order("timepoint").Find(&tmps).Error; err != nil {
		return errors.New(err).Component("core").Category(errors.CategoryDatabase).
			Context("table", "inputs_temporal_timepoints").Build()
	}
	tt := inputs.NewTable(TimepointsFile, "timepoint", "period", "weight")
	for _, t := range tmps {
		if err := tt.Append(t.Timepoint, t.Period, t.Weight); err != nil {
			return err
		}
	}

	for _, t := range []*inputs.Table{pt, tt} {
		if err := inputs.WriteFile(q.Build.InputsDir(), t); err != nil {
			return err
		}
	}
	return nil
}

// ValidateTemporal checks the scenario's periods and timepoints.
func ValidateTemporal(ctx context.Context, q subtype.Query, c *validation.Collector) error {
	db := q.DB.WithContext(ctx)

	var rows []entities.InputsTemporalPeriod
	if err := db.Where("temporal_scenario_id = ?", q.Scenario.IDs.Temporal).Order("period").Find(&rows).Error; err != nil {
		return errors.New(err).Component("core").Category(errors.CategoryDatabase).Build()
	}
	if len(rows) == 0 {
		c.Add("temporal", "inputs_temporal_periods", validation.High, "temporal subscenario has no periods")
		return nil
	}
	periods := make([]temporal.Period, 0, len(rows))
	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		periods = append(periods, temporal.Period{ID: r.Period, StartYear: r.StartYear, EndYear: r.EndYear})
		ids = append(ids, r.Period)
		if r.DiscountFactor <= 0 || r.DiscountFactor > 1 {
			c.Addf("temporal", "inputs_temporal_periods", validation.Mid,
				"period %d: discount factor %g outside (0, 1]", r.Period, r.DiscountFactor)
		}
	}
	if err := temporal.ValidatePeriods(periods); err != nil {
		c.Add("temporal", "inputs_temporal_periods", validation.High, err.Error())
	}

	var tmps []entities.InputsTemporalTimepoint
	if err := db.Where("temporal_scenario_id = ?", q.Scenario.IDs.Temporal).Find(&tmps).Error; err != nil {
		return errors.New(err).Component("core").Category(errors.CategoryDatabase).Build()
	}
	for _, t := range tmps {
		if !slices.Contains(ids, t.Period) {
			c.Addf("temporal", "inputs_temporal_timepoints", validation.High,
				"timepoint %d references unknown period %d", t.Timepoint, t.Period)
		}
		if t.Weight <= 0 {
			c.Addf("temporal", "inputs_temporal_timepoints", validation.Mid,
				"timepoint %d has non-positive weight %g", t.Timepoint, t.Weight)
		}
	}
	return nil
}
