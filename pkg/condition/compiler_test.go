package condition

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestCompileFilterGroup(t *testing.T) {
	compiler := NewCompiler(map[string]interface{}{"department": "finance"})

	tests := []struct {
		name    string
		group   *FilterGroup
		want    bson.M
		wantErr bool
	}{
		{
			name:  "nil group matches everything",
			group: nil,
			want:  bson.M{},
		},
		{
			name: "and of two rules",
			group: &FilterGroup{
				Operator: "AND",
				Rules: []FilterRule{
					{Field: "properties.department", Operator: "eq", Value: "finance"},
					{Field: "properties.grade", Operator: "gte", Value: 3},
				},
			},
			want: bson.M{"$and": []bson.M{
				{"properties.department": bson.M{"$eq": "finance"}},
				{"properties.grade": bson.M{"$gte": 3}},
			}},
		},
		{
			name: "or group with variable resolution",
			group: &FilterGroup{
				Operator: "OR",
				Rules: []FilterRule{
					{Field: "properties.department", Operator: "eq", Value: "$department"},
					{Field: "properties.site", Operator: "in", Value: []string{"HQ", "North"}},
				},
			},
			want: bson.M{"$or": []bson.M{
				{"properties.department": bson.M{"$eq": "finance"}},
				{"properties.site": bson.M{"$in": []string{"HQ", "North"}}},
			}},
		},
		{
			name: "nested sub-group",
			group: &FilterGroup{
				Operator: "AND",
				Rules: []FilterRule{
					{Field: "active", Operator: "eq", Value: true},
				},
				Groups: []FilterGroup{
					{
						Operator: "OR",
						Rules: []FilterRule{
							{Field: "properties.grade", Operator: "gt", Value: 5},
							{Field: "properties.lead", Operator: "eq", Value: true},
						},
					},
				},
			},
			want: bson.M{"$and": []bson.M{
				{"active": bson.M{"$eq": true}},
				{"$or": []bson.M{
					{"properties.grade": bson.M{"$gt": 5}},
					{"properties.lead": bson.M{"$eq": true}},
				}},
			}},
		},
		{
			name: "unknown operator",
			group: &FilterGroup{
				Operator: "AND",
				Rules:    []FilterRule{{Field: "a", Operator: "between", Value: 1}},
			},
			wantErr: true,
		},
		{
			name: "unresolved variable",
			group: &FilterGroup{
				Operator: "AND",
				Rules:    []FilterRule{{Field: "a", Operator: "eq", Value: "$missing"}},
			},
			wantErr: true,
		},
		{
			name: "contains requires string",
			group: &FilterGroup{
				Operator: "AND",
				Rules:    []FilterRule{{Field: "a", Operator: "contains", Value: 42}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := compiler.Compile(tt.group)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Compile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Compile() = %v, want %v", got, tt.want)
			}
		})
	}
}
