package facts

// builtins are names every Python module can read without binding them.
var builtins = map[string]bool{}

func init() {
	for _, name := range []string{
		// constants
		"True", "False", "None", "Ellipsis", "NotImplemented", "__debug__",
		// module attributes
		"__name__", "__file__", "__doc__", "__package__", "__spec__",
		"__loader__", "__builtins__", "__path__", "__cached__", "__annotations__",
		"__dict__", "__class__", "__import__",
		// functions
		"abs", "aiter", "all", "anext", "any", "ascii", "bin", "breakpoint",
		"callable", "chr", "compile", "delattr", "dir", "divmod", "eval",
		"exec", "exit", "format", "getattr", "globals", "hasattr", "hash",
		"help", "hex", "id", "input", "isinstance", "issubclass", "iter",
		"len", "locals", "max", "min", "next", "oct", "open", "ord", "pow",
		"print", "quit", "repr", "round", "setattr", "sorted", "sum", "vars",
		// types
		"bool", "bytearray", "bytes", "classmethod", "complex", "dict",
		"enumerate", "filter", "float", "frozenset", "int", "list", "map",
		"memoryview", "object", "property", "range", "reversed", "set",
		"slice", "staticmethod", "str", "super", "tuple", "type", "zip",
		// exceptions
		"ArithmeticError", "AssertionError", "AttributeError", "BaseException",
		"BaseExceptionGroup", "BlockingIOError", "BrokenPipeError", "BufferError",
		"BytesWarning", "ChildProcessError", "ConnectionAbortedError",
		"ConnectionError", "ConnectionRefusedError", "ConnectionResetError",
		"DeprecationWarning", "EOFError", "EncodingWarning", "EnvironmentError",
		"Exception", "ExceptionGroup", "FileExistsError", "FileNotFoundError",
		"FloatingPointError", "FutureWarning", "GeneratorExit", "IOError",
		"ImportError", "ImportWarning", "IndentationError", "IndexError",
		"InterruptedError", "IsADirectoryError", "KeyError", "KeyboardInterrupt",
		"LookupError", "MemoryError", "ModuleNotFoundError", "NameError",
		"NotADirectoryError", "NotImplementedError", "OSError", "OverflowError",
		"PendingDeprecationWarning", "PermissionError", "ProcessLookupError",
		"RecursionError", "ReferenceError", "ResourceWarning", "RuntimeError",
		"RuntimeWarning", "StopAsyncIteration", "StopIteration", "SyntaxError",
		"SyntaxWarning", "SystemError", "SystemExit", "TabError", "TimeoutError",
		"TypeError", "UnboundLocalError", "UnicodeDecodeError",
		"UnicodeEncodeError", "UnicodeError", "UnicodeTranslateError",
		"UnicodeWarning", "UserWarning", "ValueError", "Warning",
		"ZeroDivisionError",
	} {
		builtins[name] = true
	}
}

// IsBuiltin reports whether name resolves without any module binding.
func IsBuiltin(name string) bool {
	return builtins[name]
}
