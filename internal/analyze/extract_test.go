package analyze

import "testing"

func toolSpec(t *testing.T, name string) ToolSpec {
	t.Helper()
	for _, s := range BuildTools {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no tool spec named %q", name)
	return ToolSpec{}
}

func javaSpec(t *testing.T, tool string) JavaSpec {
	t.Helper()
	for _, s := range JavaSpecs {
		if s.Tool == tool {
			return s
		}
	}
	t.Fatalf("no java spec for %q", tool)
	return JavaSpec{}
}

func TestExtractVersion(t *testing.T) {
	maven := toolSpec(t, "maven")
	gradle := toolSpec(t, "gradle")

	cases := []struct {
		name    string
		spec    ToolSpec
		content string
		want    string
	}{
		{
			name: "maven wrapper distribution url",
			spec: maven,
			content: "distributionUrl=https://repo.maven.apache.org/maven2/org/apache/maven/" +
				"apache-maven/3.9.6/apache-maven-3.9.6-bin.zip\n",
			want: "3.9.6",
		},
		{
			name:    "maven version property in pom",
			spec:    maven,
			content: "<properties><maven.version>3.8.1</maven.version></properties>",
			want:    "3.8.1",
		},
		{
			name:    "jenkins tool block takes the version group",
			spec:    maven,
			content: "tool 'Maven 3' {\n  maven '3.6.3'\n}",
			want:    "3.6.3",
		},
		{
			name:    "gradle wrapper bin distribution",
			spec:    gradle,
			content: "distributionUrl=https\\://services.gradle.org/distributions/gradle-8.5-bin.zip",
			want:    "8.5",
		},
		{
			name:    "gradle wrapper all distribution",
			spec:    gradle,
			content: "distributionUrl=https\\://services.gradle.org/distributions/gradle-7.4.2-all.zip",
			want:    "7.4.2",
		},
		{
			name:    "gradleVersion assignment",
			spec:    gradle,
			content: `task wrapper(type: Wrapper) { gradleVersion = "6.8" }`,
			want:    "6.8",
		},
		{
			name:    "no match",
			spec:    maven,
			content: "plugins { id 'java' }",
			want:    "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractVersion(tc.content, tc.spec.Patterns); got != tc.want {
				t.Errorf("ExtractVersion = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractJava(t *testing.T) {
	t.Run("maven pom with source and target", func(t *testing.T) {
		content := `<project>
  <properties>
    <maven.compiler.source>11</maven.compiler.source>
    <maven.compiler.target>11</maven.compiler.target>
  </properties>
</project>`
		fact := ExtractJava(content, javaSpec(t, "maven"), "pom.xml", "api", "main")
		if fact == nil {
			t.Fatal("expected a fact")
		}
		if fact.Version != "11" || fact.SourceCompatibility != "11" || fact.TargetCompatibility != "11" {
			t.Fatalf("unexpected fact: %+v", fact)
		}
		if fact.DetectionMethod != "Found in maven configuration" {
			t.Fatalf("detection method: %q", fact.DetectionMethod)
		}
	})

	t.Run("explicit java.version wins as primary", func(t *testing.T) {
		content := `<properties>
  <java.version>17</java.version>
  <maven.compiler.source>11</maven.compiler.source>
</properties>`
		fact := ExtractJava(content, javaSpec(t, "maven"), "pom.xml", "api", "main")
		if fact == nil || fact.Version != "17" || fact.SourceCompatibility != "11" {
			t.Fatalf("unexpected fact: %+v", fact)
		}
	})

	t.Run("gradle JavaVersion enum is stripped", func(t *testing.T) {
		content := "java {\n  sourceCompatibility = JavaVersion.VERSION_1_8\n}"
		fact := ExtractJava(content, javaSpec(t, "gradle"), "build.gradle", "api", "main")
		if fact == nil {
			t.Fatal("expected a fact")
		}
		if fact.Version != "1_8" {
			t.Fatalf("expected stripped primary version, got %q", fact.Version)
		}
		if fact.SourceCompatibility != "1_8" {
			t.Fatalf("source compatibility: %q", fact.SourceCompatibility)
		}
	})

	t.Run("no java settings", func(t *testing.T) {
		if fact := ExtractJava("apply plugin: 'java'", javaSpec(t, "gradle"), "build.gradle", "api", "main"); fact != nil {
			t.Fatalf("expected nil, got %+v", fact)
		}
	})
}

func TestExtractPlugin(t *testing.T) {
	spec := PluginSpecs[0]

	fact := ExtractPlugin("publishPluginVersion=2.4.1\norg.gradle.caching=true\n",
		spec, "gradle.properties", "api", "main")
	if fact == nil {
		t.Fatal("expected a fact")
	}
	if fact.PluginName != "publishPluginVersion" || fact.Version != "2.4.1" {
		t.Fatalf("unexpected fact: %+v", fact)
	}

	if fact := ExtractPlugin("org.gradle.caching=true", spec, "gradle.properties", "api", "main"); fact != nil {
		t.Fatalf("expected nil, got %+v", fact)
	}
}
