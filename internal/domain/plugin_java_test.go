package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courselab/langs/internal/adapter"
	m "github.com/courselab/langs/internal/model"
)

const javaTestSource = `package exercise;

import org.junit.Test;

@Points("week1")
public class ArithTest {

    @Test
    @Points("week1.add")
    public void addsNumbers() {
    }

    @Test
    public void subtractsNumbers() {
    }

    // @Test
    // public void disabledTest() {
    // }
}
`

func TestScanJavaTests(t *testing.T) {
	root := t.TempDir()
	writeExerciseFile(t, root, "src/test/ArithTest.java", javaTestSource)
	writeExerciseFile(t, root, "src/main/Arith.java", "public class Arith {}\n")

	desc, err := scanJavaTests(m.Path(root), "src/test", "arith")

	require.NoError(t, err)
	require.Len(t, desc.Tests, 2)

	assert.Equal(t, "ArithTest addsNumbers", desc.Tests[0].Name)
	assert.Equal(t, []string{"week1", "week1.add"}, desc.Tests[0].Points)

	assert.Equal(t, "ArithTest subtractsNumbers", desc.Tests[1].Name)
	assert.Equal(t, []string{"week1"}, desc.Tests[1].Points)
}

func TestClassLevelPoints(t *testing.T) {
	t.Run("annotation before class", func(t *testing.T) {
		points := classLevelPoints("@Points(\"a b\")\npublic class FooTest {\n}")
		assert.Equal(t, []string{"a", "b"}, points)
	})

	t.Run("no class declaration", func(t *testing.T) {
		assert.Nil(t, classLevelPoints("@Points(\"a\")\n"))
	})

	t.Run("method annotations are not class points", func(t *testing.T) {
		content := "public class FooTest {\n  @Points(\"m\")\n  public void testIt() {}\n}"
		assert.Nil(t, classLevelPoints(content))
	})
}

func TestMavenPlugin_FindProjectDirInArchive(t *testing.T) {
	plugin := NewMavenPlugin(adapter.NewLocalCommandRunner())

	t.Run("shallowest pom wins", func(t *testing.T) {
		dir, ok := plugin.FindProjectDirInArchive([]m.Path{
			"course/ex1/sub/pom.xml",
			"course/ex1/pom.xml",
			"course/ex1/src/main/java/App.java",
		})

		require.True(t, ok)
		assert.Equal(t, m.Path("course/ex1"), dir)
	})

	t.Run("no marker", func(t *testing.T) {
		_, ok := plugin.FindProjectDirInArchive([]m.Path{"readme.md"})
		assert.False(t, ok)
	})
}

func TestStripLineComments(t *testing.T) {
	t.Run("java style", func(t *testing.T) {
		stripped := stripLineComments("code(); // trailing\n// whole line\nmore();", "//")
		assert.Equal(t, "code(); \n\nmore();", stripped)
	})

	t.Run("hash style", func(t *testing.T) {
		stripped := stripLineComments("x <- 1 # note\n# only comment", "#")
		assert.Equal(t, "x <- 1 \n", stripped)
	})
}
