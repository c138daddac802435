package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDictionary() *FieldDictionary {
	return &FieldDictionary{
		Tables: []Table{
			{Name: "users", Fields: []Field{
				{Name: "id", DataType: "bigint", PrimaryKey: true},
				{Name: "name", DataType: "text"},
			}},
			{Name: "orders", Fields: []Field{
				{Name: "id", DataType: "bigint", PrimaryKey: true},
				{Name: "user_id", DataType: "bigint"},
				{Name: "amount", DataType: "numeric"},
			}},
		},
		Relations: []Relation{
			{FromTable: "orders", FromField: "user_id", ToTable: "users", ToField: "id", Kind: RelationOneToMany},
		},
		IsComplete: true,
	}
}

func TestHasFieldIsCaseSensitive(t *testing.T) {
	d := sampleDictionary()

	assert.True(t, d.HasField("users", "name"))
	assert.False(t, d.HasField("users", "Name"))
	assert.False(t, d.HasField("Users", "name"))
	assert.False(t, d.HasField("users", "email"))
}

func TestNormalizeCapsAndDeduplicatesSamples(t *testing.T) {
	d := &FieldDictionary{Tables: []Table{{Name: "t", Fields: []Field{{Name: "f"}}}}}
	f := &d.Tables[0].Fields[0]
	for i := 0; i < 30; i++ {
		f.SampleValues = append(f.SampleValues, "dup")
	}
	for i := 0; i < 30; i++ {
		f.SampleValues = append(f.SampleValues, string(rune('a'+i)))
	}

	d.Normalize()

	assert.Len(t, f.SampleValues, MaxSampleValues)
	assert.Equal(t, "dup", f.SampleValues[0])
	assert.Equal(t, "a", f.SampleValues[1])
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, sampleDictionary().Validate())
	})

	t.Run("duplicate table", func(t *testing.T) {
		d := sampleDictionary()
		d.Tables = append(d.Tables, Table{Name: "users"})
		assert.Error(t, d.Validate())
	})

	t.Run("relation to unknown table", func(t *testing.T) {
		d := sampleDictionary()
		d.Relations = append(d.Relations, Relation{FromTable: "orders", ToTable: "products", Kind: RelationOneToMany})
		assert.Error(t, d.Validate())
	})

	t.Run("invalid relation kind", func(t *testing.T) {
		d := sampleDictionary()
		d.Relations[0].Kind = "one-to-many"
		assert.Error(t, d.Validate())
	})
}

func TestPruneInvalidRelations(t *testing.T) {
	d := sampleDictionary()
	d.Relations = append(d.Relations, Relation{FromTable: "orders", FromField: "product_id", ToTable: "products", ToField: "id", Kind: RelationOneToMany})

	warnings := d.PruneInvalidRelations()

	require.Len(t, d.Relations, 1)
	assert.Equal(t, "users", d.Relations[0].ToTable)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "products")
}

func TestTableAndFieldEdits(t *testing.T) {
	t.Run("add field flags it as user-added", func(t *testing.T) {
		d := sampleDictionary()
		require.NoError(t, d.AddField("users", Field{Name: "email", DataType: "text"}))

		assert.True(t, d.HasField("users", "email"))
		fields := d.Table("users").Fields
		assert.True(t, fields[len(fields)-1].UserAdded)
	})

	t.Run("add duplicate field fails", func(t *testing.T) {
		d := sampleDictionary()
		assert.Error(t, d.AddField("users", Field{Name: "name"}))
	})

	t.Run("remove table drops its relations", func(t *testing.T) {
		d := sampleDictionary()
		require.NoError(t, d.RemoveTable("users"))

		assert.Nil(t, d.Table("users"))
		assert.Empty(t, d.Relations)
	})

	t.Run("rename table rewrites relations", func(t *testing.T) {
		d := sampleDictionary()
		require.NoError(t, d.RenameTable("users", "customers"))

		assert.Nil(t, d.Table("users"))
		require.NotNil(t, d.Table("customers"))
		assert.Equal(t, "customers", d.Relations[0].ToTable)
	})

	t.Run("rename field", func(t *testing.T) {
		d := sampleDictionary()
		require.NoError(t, d.RenameField("users", "name", "full_name"))

		assert.False(t, d.HasField("users", "name"))
		assert.True(t, d.HasField("users", "full_name"))
	})

	t.Run("rename to existing field fails", func(t *testing.T) {
		d := sampleDictionary()
		assert.Error(t, d.RenameField("users", "name", "id"))
	})

	t.Run("edits on missing tables return ErrNotFound", func(t *testing.T) {
		d := sampleDictionary()
		assert.ErrorIs(t, d.RemoveTable("ghost"), ErrNotFound)
		assert.ErrorIs(t, d.AddField("ghost", Field{Name: "x"}), ErrNotFound)
		assert.ErrorIs(t, d.RemoveField("users", "ghost"), ErrNotFound)
	})
}

func TestUnknownIdentifiers(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected []string
	}{
		{
			name: "fully grounded join",
			sql:  "SELECT u.name, o.amount FROM users u JOIN orders o ON o.user_id = u.id",
		},
		{
			name: "alias with AS",
			sql:  "SELECT u.name FROM users AS u",
		},
		{
			name:     "unknown table",
			sql:      "SELECT p.price FROM products p",
			expected: []string{"products", "price"},
		},
		{
			name:     "unknown column through alias",
			sql:      "SELECT u.email FROM users u",
			expected: []string{"email"},
		},
		{
			name:     "wrong casing is unknown",
			sql:      "SELECT u.Name FROM users u",
			expected: []string{"Name"},
		},
		{
			name: "string literals are ignored",
			sql:  "SELECT u.name FROM users u WHERE u.name = 'ghost.column'",
		},
		{
			name: "star is not a column",
			sql:  "SELECT u.* FROM users u",
		},
		{
			name:     "each identifier reported once",
			sql:      "SELECT u.email, u.email FROM users u",
			expected: []string{"email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := sampleDictionary()
			got := d.UnknownIdentifiers(tt.sql)
			if tt.expected == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}
