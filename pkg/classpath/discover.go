package classpath

import (
	"os"
	"path/filepath"

	"github.com/evanreyes/classdump/pkg/classfile"
)

// DefaultJavaBaseJmod locates the JDK's java.base.jmod the same way a
// `java` launcher's bootstrap path resolution does: an explicit
// override, then $JAVA_HOME, then a best-effort glob of common install
// locations. The JAVA_BASE_JMOD override is returned as given, without
// checking that it exists; otherwise it returns "" if no candidate exists.
func DefaultJavaBaseJmod() string {
	if env := os.Getenv("JAVA_BASE_JMOD"); env != "" {
		return env
	}
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		p := filepath.Join(javaHome, "jmods", "java.base.jmod")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	matches, _ := filepath.Glob("/usr/lib/jvm/java-*-openjdk-*/jmods/java.base.jmod")
	if len(matches) > 0 {
		return matches[0]
	}
	return ""
}

// ParseClass finds name on cp and parses it. It returns an error if the
// class cannot be found, distinguishing "not found" from the I/O and
// parse errors ClassPath.FindClass and classfile.Parse can themselves
// return.
func ParseClass(cp ClassPath, name string) (*classfile.ClassFile, error) {
	rc, err := cp.FindClass(name)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, &NotFoundError{Name: name}
	}
	defer rc.Close()
	return classfile.Parse(rc)
}

// NotFoundError reports that no ClassPath entry had the requested class.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "classpath: class not found: " + e.Name
}
