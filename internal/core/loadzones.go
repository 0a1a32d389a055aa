package core

import (
	"context"

	"github.com/gridforge/gridforge/internal/datastore/entities"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/inputs"
	"github.com/gridforge/gridforge/internal/model"
	"github.com/gridforge/gridforge/internal/subtype"
	"github.com/gridforge/gridforge/internal/validation"
)

// LoadZones reads load_zones.tab and load_mw.tab. Every zone must have a load
// for every timepoint; a gap is a build error, not a silent zero.
func LoadZones(m *model.Model, dir string) error {
	zt, err := inputs.ReadFile(dir, LoadZonesFile)
	if err != nil {
		return err
	}
	zones := model.NewSet[string](SetLoadZones)
	unserved := model.NewParamWithDefault[model.Name](ParamUnservedEnergyPrice, DefaultUnservedEnergyPrice)
	overgen := model.NewParamWithDefault[model.Name](ParamOvergenerationPrice, DefaultOvergenerationPrice)
	for _, r := range zt.Records() {
		z, err := r.String("load_zone")
		if err != nil {
			return err
		}
		zones.Add(z)
		if v, ok, err := r.OptFloat("unserved_energy_penalty_per_mwh"); err != nil {
			return err
		} else if ok {
			unserved.Set(model.Name(z), v)
		}
		if v, ok, err := r.OptFloat("overgeneration_penalty_per_mwh"); err != nil {
			return err
		} else if ok {
			overgen.Set(model.Name(z), v)
		}
	}

	lt, err := inputs.ReadFile(dir, LoadFile)
	if err != nil {
		return err
	}
	tmps, err := model.SetOf[int](m, SetTimepoints)
	if err != nil {
		return err
	}
	load := model.NewParam[model.ZoneTimepoint](ParamLoad)
	for _, r := range lt.Records() {
		z, err := r.String("load_zone")
		if err != nil {
			return err
		}
		tmp, err := r.Int("timepoint")
		if err != nil {
			return err
		}
		mw, err := r.Float("load_mw")
		if err != nil {
			return err
		}
		if !zones.Contains(z) || !tmps.Contains(tmp) {
			continue
		}
		load.Set(model.ZoneTimepoint{Zone: z, Timepoint: tmp}, mw)
	}
	for _, z := range zones.Items() {
		for _, tmp := range tmps.Items() {
			if !load.Has(model.ZoneTimepoint{Zone: z, Timepoint: tmp}) {
				return errors.Newf("%s: no load for zone %s in timepoint %d", LoadFile, z, tmp).
					Component("core").
					Category(errors.CategoryModelBuild).
					Build()
			}
		}
	}

	if err := model.AddSet(m, zones); err != nil {
		return err
	}
	if err := model.AddParam(m, unserved); err != nil {
		return err
	}
	if err := model.AddParam(m, overgen); err != nil {
		return err
	}
	return model.AddParam(m, load)
}

// WriteLoadInputs writes load_zones.tab and load_mw.tab for the scenario.
func WriteLoadInputs(ctx context.Context, q subtype.Query) error {
	db := q.DB.WithContext(ctx)

	var zones []entities.InputsLoadZone
	if err := db.Where("load_scenario_id = ?", q.Scenario.IDs.Load).Order("load_zone").Find(&zones).Error; err != nil {
		return errors.New(err).Component("core").Category(errors.CategoryDatabase).
			Context("table", "inputs_load_zones").Build()
	}
	zt := inputs.NewTable(LoadZonesFile, "load_zone", "unserved_energy_penalty_per_mwh")
	for _, z := range zones {
		if err := zt.Append(z.LoadZone, z.UnservedEnergyPenaltyPerMWh); err != nil {
			return err
		}
	}

	var loads []entities.InputsLoad
	if err := db.Where("load_scenario_id = ?", q.Scenario.IDs.Load).Order("load_zone, timepoint").Find(&loads).Error; err != nil {
		return errors.New(err).Component("core").Category(errors.CategoryDatabase).
			Context("table", "inputs_load").Build()
	}
	lt := inputs.NewTable(LoadFile, "load_zone", "timepoint", "load_mw")
	for _, l := range loads {
		if err := lt.Append(l.LoadZone, l.Timepoint, l.LoadMW); err != nil {
			return err
		}
	}

	for _, t := range []*inputs.Table{zt, lt} {
		if err := inputs.WriteFile(q.Build.InputsDir(), t); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLoad flags negative loads and zones without any load.
func ValidateLoad(ctx context.Context, q subtype.Query, c *validation.Collector) error {
	db := q.DB.WithContext(ctx)

	var zones []entities.InputsLoadZone
	if err := db.Where("load_scenario_id = ?", q.Scenario.IDs.Load).Find(&zones).Error; err != nil {
		return errors.New(err).Component("core").Category(errors.CategoryDatabase).Build()
	}
	var loads []entities.InputsLoad
	if err := db.Where("load_scenario_id = ?", q.Scenario.IDs.Load).Find(&loads).Error; err != nil {
		return errors.New(err).Component("core").Category(errors.CategoryDatabase).Build()
	}

	seen := make(map[string]bool, len(zones))
	for _, l := range loads {
		seen[l.LoadZone] = true
		if l.LoadMW < 0 {
			c.Addf("load", "inputs_load", validation.Mid,
				"zone %s timepoint %d: negative load %g", l.LoadZone, l.Timepoint, l.LoadMW)
		}
	}
	for _, z := range zones {
		if !seen[z.LoadZone] {
			c.Addf("load", "inputs_load", validation.High, "zone %s has no load", z.LoadZone)
		}
	}
	return nil
}
