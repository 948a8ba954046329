// Copyright 2016 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package memory

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// Seed holds initial records by collection name.
type Seed map[string][]map[string]interface{}

// Load inserts every record of seed.
func (s *Store) Load(seed Seed) {
	for name, records := range seed {
		for _, record := range records {
			s.Insert(name, record)
		}
	}
}

// LoadYaml reads a seed file of the form
//
//     Survey:
//       - id: 1
//         title: Customer satisfaction
//     Response:
//       - survey_id: 1
//         "[question(5)]": VERY important
//
// and inserts its records.
func (s *Store) LoadYaml(filename string) error {
	bytes, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}
	var raw map[string][]map[string]interface{}
	if err = yaml.Unmarshal(bytes, &raw); err != nil {
		return err
	}
	seed := make(Seed, len(raw))
	for name, records := range raw {
		for _, record := range records {
			clean, isMap := cleanYaml(record).(map[string]interface{})
			if !isMap {
				return fmt.Errorf("%s: record is not a map", name)
			}
			seed[name] = append(seed[name], clean)
		}
	}
	s.Load(seed)
	return nil
}

// cleanYaml converts the map[interface{}]interface{} values yaml.v2
// produces for nested maps into string-keyed maps.
func cleanYaml(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for k, item := range v {
			result[k] = cleanYaml(item)
		}
		return result
	case map[interface{}]interface{}:
		result := make(map[string]interface{}, len(v))
		for k, item := range v {
			result[fmt.Sprint(k)] = cleanYaml(item)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = cleanYaml(item)
		}
		return result
	default:
		return v
	}
}
